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

// Package style supports specifying SVG styling for heatmap elements.
//
// A Style instance comprises a mapping from SVG attribute name to value,
// both represented as strings.  A Style may be attached to a response Datum
// via the `Define()` method, or rendered as SVG element attributes via
// `Attrs()`.  Names and values should be those of SVG attributes, e.g.
// https://developer.mozilla.org/en-US/docs/Web/SVG/Attribute.
package style

import (
	"fmt"
	"html"
	"sort"
	"strconv"

	"github.com/ilhamster/calviz/util"
)

const (
	keyPrefix = "style_"
)

// Style defines a set of styles that can be attached to a Datum.
type Style struct {
	attrs map[string]string
}

// New returns a new, empty Style.
func New() *Style {
	return &Style{
		attrs: map[string]string{},
	}
}

// Define returns a PropertyUpdate defining the receiver into a Datum.
func (s *Style) Define() util.PropertyUpdate {
	ret := make([]util.PropertyUpdate, 0, len(s.attrs))
	for _, attr := range s.names() {
		ret = append(ret, util.StringProperty(keyPrefix+attr, s.attrs[attr]))
	}
	return util.Chain(ret...)
}

func (s *Style) names() []string {
	ret := make([]string, 0, len(s.attrs))
	for attr := range s.attrs {
		ret = append(ret, attr)
	}
	sort.Strings(ret)
	return ret
}

// Attrs returns the receiver's attributes as escaped `name="value"` strings,
// sorted by name.
func (s *Style) Attrs() []string {
	ret := make([]string, 0, len(s.attrs))
	for _, attr := range s.names() {
		ret = append(ret, fmt.Sprintf(`%s="%s"`, attr, html.EscapeString(s.attrs[attr])))
	}
	return ret
}

// Px formats the provided value as a pixel specifier.
func Px(valPx float64) string {
	return fmt.Sprintf("%.2fpx", valPx)
}

// Num formats the provided value as a bare SVG number.
func Num(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}

// With sets the specified attribute type and value in the receiver.
func (s *Style) With(attrType string, attrVal string) *Style {
	s.attrs[attrType] = attrVal
	return s
}

// Get returns the value of the specified attribute, if set.
func (s *Style) Get(attrType string) (string, bool) {
	v, ok := s.attrs[attrType]
	return v, ok
}
