/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package tagging is the entity auto-tagging engine. It works on
// markup.Text only:
//
//   - Tag turns occurrences of entity names in plain runs into references.
//   - Scan collects the referenced ids.
//   - ImplicitMentions finds props and scenes named in plain text.
//   - Expand and ExpandConcise replace references with descriptions.
//
// All functions are pure and never fail; HTML variants parse tolerantly.
package tagging
