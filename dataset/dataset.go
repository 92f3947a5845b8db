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

// Package dataset defines the calendar dataset consumed by calviz: one or
// more named series of timestamped points, tagged with their shape and
// validated when they enter the system.
//
// The JSON encoding is
//
//	{
//	  "series": [{
//	    "label": "visits",
//	    "values": [{"x": 1609804800000, "y": 4, "y0": 1}, ...]
//	  }, ...]
//	}
//
// with x in milliseconds since the Unix epoch and y0 optional.
package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrInvalidDataShape is returned when a dataset does not have the shape an
// operation requires.
var ErrInvalidDataShape = errors.New("invalid data shape")

// Shape tags the structure of a Dataset.
type Shape int

const (
	// ShapeUnknown is the zero Shape; unvalidated datasets have it.
	ShapeUnknown Shape = iota
	// ShapeCalendar marks a validated calendar dataset.
	ShapeCalendar
)

// Point is a single datum.  Y0, if present, is the stacked baseline on which
// Y sits.
type Point struct {
	X  time.Time
	Y  float64
	Y0 *float64
}

// Top returns the point's stacked value: Y0+Y if Y0 is present, otherwise Y.
func (p Point) Top() float64 {
	if p.Y0 != nil {
		return *p.Y0 + p.Y
	}
	return p.Y
}

// Series is a named run of points in ascending X order.
type Series struct {
	Label  string
	Points []Point
}

// First returns the series' first point.
func (s *Series) First() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[0], true
}

// Last returns the series' last point.
func (s *Series) Last() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Dataset is a set of series.  Only datasets built by New or Decode carry
// ShapeCalendar.
type Dataset struct {
	Shape  Shape
	Series []*Series
}

// Validate checks that series can form a calendar dataset: there is at least
// one series, and every series is sorted ascending by X.
func Validate(series ...*Series) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: a dataset needs at least one series", ErrInvalidDataShape)
	}
	for _, s := range series {
		if s == nil {
			return fmt.Errorf("%w: nil series", ErrInvalidDataShape)
		}
		for i := 1; i < len(s.Points); i++ {
			if s.Points[i].X.Before(s.Points[i-1].X) {
				return fmt.Errorf("%w: series %q is not sorted by x at point %d", ErrInvalidDataShape, s.Label, i)
			}
		}
	}
	return nil
}

// New validates the provided series and returns a calendar Dataset holding
// them.
func New(series ...*Series) (*Dataset, error) {
	if err := Validate(series...); err != nil {
		return nil, err
	}
	return &Dataset{
		Shape:  ShapeCalendar,
		Series: series,
	}, nil
}

// Calendar checks that d is a validated calendar dataset.
func (d *Dataset) Calendar() error {
	if d == nil || d.Shape != ShapeCalendar {
		return fmt.Errorf("%w: expected a calendar dataset", ErrInvalidDataShape)
	}
	return nil
}

// FirstSeries returns the dataset's first series, which drives category
// extents and grid intervals.  It must be non-empty.
func (d *Dataset) FirstSeries() (*Series, error) {
	if err := d.Calendar(); err != nil {
		return nil, err
	}
	if len(d.Series) == 0 || len(d.Series[0].Points) == 0 {
		return nil, fmt.Errorf("%w: the first series has no points", ErrInvalidDataShape)
	}
	return d.Series[0], nil
}

// Tops returns the stacked value of every point in every series.
func (d *Dataset) Tops() []float64 {
	var ret []float64
	for _, s := range d.Series {
		for _, p := range s.Points {
			ret = append(ret, p.Top())
		}
	}
	return ret
}

type pointJSON struct {
	X  *int64   `json:"x"`
	Y  float64  `json:"y"`
	Y0 *float64 `json:"y0,omitempty"`
}

type seriesJSON struct {
	Label  string      `json:"label"`
	Values []pointJSON `json:"values"`
}

type datasetJSON struct {
	Series []seriesJSON `json:"series"`
}

// Decode reads a JSON-encoded dataset from r and validates it.
func Decode(r io.Reader) (*Dataset, error) {
	var raw datasetJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDataShape, err)
	}
	series := make([]*Series, len(raw.Series))
	for i, rs := range raw.Series {
		s := &Series{
			Label:  rs.Label,
			Points: make([]Point, len(rs.Values)),
		}
		for j, rp := range rs.Values {
			if rp.X == nil {
				return nil, fmt.Errorf("%w: series %q point %d has no x", ErrInvalidDataShape, rs.Label, j)
			}
			s.Points[j] = Point{
				X:  time.UnixMilli(*rp.X),
				Y:  rp.Y,
				Y0: rp.Y0,
			}
		}
		series[i] = s
	}
	return New(series...)
}

// Encode writes d to w in the encoding Decode reads.
func Encode(w io.Writer, d *Dataset) error {
	raw := datasetJSON{Series: make([]seriesJSON, len(d.Series))}
	for i, s := range d.Series {
		rs := seriesJSON{
			Label:  s.Label,
			Values: make([]pointJSON, len(s.Points)),
		}
		for j, p := range s.Points {
			ms := p.X.UnixMilli()
			rs.Values[j] = pointJSON{X: &ms, Y: p.Y, Y0: p.Y0}
		}
		raw.Series[i] = rs
	}
	return json.NewEncoder(w).Encode(raw)
}
