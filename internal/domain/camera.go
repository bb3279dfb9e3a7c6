/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

import "strings"

// CameraCategory groups camera instructions.
type CameraCategory string

const (
	CategoryShot     CameraCategory = "Shot"
	CategoryAngle    CameraCategory = "Angle"
	CategoryMovement CameraCategory = "Movement"
)

// Categories lists the camera categories in display order.
var Categories = []CameraCategory{CategoryShot, CategoryAngle, CategoryMovement}

var (
	ShotTypes = []string{
		"Extreme Wide Shot", "Wide Shot", "Medium Shot", "Close-up", "Extreme Close-up",
		"Over-the-shoulder", "Point of View", "Birds Eye Shot", "Aerial Shot",
	}
	CameraAngles = []string{
		"Eye Level", "High Angle", "Low Angle", "Dutch Angle", "Bird's Eye View", "Worm's Eye View",
	}
	CameraMovements = []string{
		"Static", "Pan Left", "Pan Right", "Tilt Up", "Tilt Down", "Dolly In", "Dolly Out",
		"Zoom In", "Zoom Out", "Truck Left", "Truck Right", "Handheld Shake", "Orbit",
		"Crane Up", "Crane Down",
	}
	// TimingOptions are suggestions; any timing string is accepted.
	TimingOptions = []string{"0:00", "0:02", "0:04", "0:08", "0:15", "0:30"}
)

// ValuesFor returns the suggested values for a category, nil for unknown ones.
func ValuesFor(c CameraCategory) []string {
	switch c {
	case CategoryShot:
		return ShotTypes
	case CategoryAngle:
		return CameraAngles
	case CategoryMovement:
		return CameraMovements
	}
	return nil
}

// ParseCameraCategory canonicalizes a known category name, ignoring case.
// Blank input is Shot; any other text is kept as its own category.
func ParseCameraCategory(s string) CameraCategory {
	s = strings.TrimSpace(s)
	if s == "" {
		return CategoryShot
	}
	for _, c := range Categories {
		if strings.EqualFold(s, string(c)) {
			return c
		}
	}
	return CameraCategory(s)
}

// DefaultCameraInstructions is what a manually added shot starts with.
func DefaultCameraInstructions() []CameraInstruction {
	return []CameraInstruction{
		{ID: NewID("cam"), Category: CategoryShot, Value: "Wide Shot", Timing: "0:00"},
		{ID: NewID("cam"), Category: CategoryAngle, Value: "Eye Level", Timing: "0:00"},
	}
}
