/*
	Copyright 2023 Google Inc.
	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at
		https://www.apache.org/licenses/LICENSE-2.0
	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package color supports declaring color spaces and coloring day cells.
//
// A color space is a sequence of HTML hex colors.  It can be defined into a
// response, after which individual Datums may be annotated with their
// position along that sequence, from 0.0 ('the leftmost color') to 1.0 ('the
// rightmost color'), for the client to interpolate.  A Space can also map a
// position to a concrete color itself, for server-rendered output such as
// SVG:
//
//	valueSpace, err := color.NewSpace("value", "#ebedf0", "#216e39")
//	...
//	cell.With(
//	  valueSpace.PrimaryColor(color.Normalize(v, min, max)),
//	)
//	fill := valueSpace.Map(color.Normalize(v, min, max))
package color

import (
	"errors"
	"fmt"
	imagecolor "image/color"
	"math"
	"strconv"
	"strings"

	"github.com/aclements/go-gg/palette"
	"github.com/ilhamster/calviz/util"
)

// ErrInvalidColor is returned for colors that are not HTML hex colors.
var ErrInvalidColor = errors.New("invalid color")

const (
	// colorSpaceNamePrefix defines a color space.
	colorSpaceNamePrefix = "color_space_"
	// The primary color space and value, or raw color.
	primaryColorSpaceKey      = "primary_color_space"
	primaryColorSpaceValueKey = "primary_color_space_value"
	primaryColorKey           = "primary_color"
)

// Space represents a color space: a color continuum that can map double
// values to colors.
type Space struct {
	name     string
	colors   []string
	gradient palette.RGBGradient
}

// NewSpace defines a new color space.  Colors in this space are
// interpolated between the specified colors, each an HTML hex color of the
// form '#rgb' or '#rrggbb'.
func NewSpace(name string, colors ...string) (*Space, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("%w: color space '%s' has no colors", ErrInvalidColor, name)
	}
	rgbas := make([]imagecolor.RGBA, len(colors))
	for idx, c := range colors {
		rgba, err := ParseHex(c)
		if err != nil {
			return nil, err
		}
		rgbas[idx] = rgba
	}
	return &Space{
		name:   name,
		colors: append([]string{}, colors...),
		gradient: palette.RGBGradient{
			Colors: rgbas,
		},
	}, nil
}

// Define annotates with a definition of the receiving Space.
func (s *Space) Define() util.PropertyUpdate {
	return util.StringsProperty(colorSpaceNamePrefix+s.name, s.colors...)
}

// Map returns the hex color at position x, clamped to [0, 1], along the
// receiving Space.
func (s *Space) Map(x float64) string {
	switch {
	case math.IsNaN(x) || x < 0:
		x = 0
	case x > 1:
		x = 1
	}
	return Hex(s.gradient.Map(x))
}

// PrimaryColor annotates a Datum with a primary color along the receiving
// color space.
func (s *Space) PrimaryColor(colorValue float64) util.PropertyUpdate {
	return util.Chain(
		util.StringProperty(primaryColorSpaceKey, colorSpaceNamePrefix+s.name),
		util.DoubleProperty(primaryColorSpaceValueKey, colorValue),
	)
}

// Primary annotates a Datum with the specified primary color.
func Primary(colorValue string) util.PropertyUpdate {
	return util.StringProperty(primaryColorKey, colorValue)
}

// Normalize returns v's position within [min, max], from 0 to 1.  An empty
// range maps everything to 1.
func Normalize(v, min, max float64) float64 {
	if max <= min {
		return 1
	}
	return (v - min) / (max - min)
}

// ParseHex parses an HTML hex color.
func ParseHex(c string) (imagecolor.RGBA, error) {
	hex, ok := strings.CutPrefix(c, "#")
	if !ok {
		return imagecolor.RGBA{}, fmt.Errorf("%w: '%s' is not a hex color", ErrInvalidColor, c)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return imagecolor.RGBA{}, fmt.Errorf("%w: '%s' is not a hex color", ErrInvalidColor, c)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return imagecolor.RGBA{}, fmt.Errorf("%w: '%s' is not a hex color", ErrInvalidColor, c)
	}
	return imagecolor.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 0xff,
	}, nil
}

// Hex formats c as an opaque '#rrggbb' HTML color.
func Hex(c imagecolor.Color) string {
	rgba := imagecolor.RGBAModel.Convert(c).(imagecolor.RGBA)
	return fmt.Sprintf("#%02x%02x%02x", rgba.R, rgba.G, rgba.B)
}
