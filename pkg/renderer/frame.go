// Frontline Perception System
// Copyright (C) 2020-2025 TurbineOne LLC
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package renderer

import (
	"time"

	"github.com/rs/zerolog"
)

// Frame is a single decoded video frame as delivered by an upstream decoder.
// Width and Height are the raw, unrotated buffer dimensions. Rotation is the
// clockwise rotation in degrees that must be applied for display, one of
// 0, 90, 180 or 270.
type Frame struct { //nolint:govet // Don't care about alignment.
	Data     []byte
	Width    int
	Height   int
	Rotation int
	PTS      time.Duration
}

// RotatedWidth returns the display width after applying Rotation.
func (f *Frame) RotatedWidth() int {
	if f.Rotation%180 == 90 {
		return f.Height
	}

	return f.Width
}

// RotatedHeight returns the display height after applying Rotation.
func (f *Frame) RotatedHeight() int {
	if f.Rotation%180 == 90 {
		return f.Width
	}

	return f.Height
}

func (f *Frame) MarshalZerologObject(e *zerolog.Event) {
	e.Int(lWidth, f.Width).Int(lHeight, f.Height).
		Int(lRotation, f.Rotation).Dur(lPTS, f.PTS)
}
