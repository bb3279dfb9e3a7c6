/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements project persistence and indexing.
// A project directory holds the canonical JSON manifest (project.json), written transactionally with timestamped backups,
// plus reference images under images/ and exports under exports/.
// The per-project SQLite index at <project>/.cineprompt/index.sqlite serves full-text search, where-used lookups and shot snapshots.
// It is derived from project.json and can be rebuilt at any time.
// The save library keeps whole projects in a database, keyed by project id.
package storage
