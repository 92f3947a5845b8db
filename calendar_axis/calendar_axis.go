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

// Package calendaraxis computes the scales of calendar heatmap axes.  A
// category axis has a fixed, ordered vocabulary of calendar labels (months,
// weekdays, hours, or meridiem markers) which is narrowed to the labels a
// dataset spans; a value axis has a numeric extent that always includes 0.
package calendaraxis

import (
	"errors"
	"fmt"
	"time"

	"github.com/aclements/go-moremath/stats"
	"github.com/ilhamster/calviz/dataset"
	"github.com/ilhamster/calviz/locale"
	"github.com/ilhamster/calviz/util"
)

var (
	// ErrInvalidAxisKind is returned for an axis that is neither a category
	// nor a value axis.
	ErrInvalidAxisKind = errors.New("invalid axis kind")
	// ErrInvalidCategoryScaleType is returned for a category axis with an
	// unrecognized scale type.
	ErrInvalidCategoryScaleType = errors.New("invalid category scale type")
)

// Kind is the kind of an axis.
type Kind string

const (
	Category Kind = "category"
	Value    Kind = "value"
)

// ScaleType is the vocabulary of a category axis.
type ScaleType string

const (
	Months   ScaleType = "MONTHS"
	Weeks    ScaleType = "WEEKS"
	Hours    ScaleType = "HOURS"
	Meridiem ScaleType = "MERIDIEM"
)

// Position is the side of the chart an axis is drawn on.
type Position string

const (
	Top    Position = "top"
	Left   Position = "left"
	Bottom Position = "bottom"
	Right  Position = "right"
)

const (
	axisIDKey        = "axis_id"
	axisKindKey      = "axis_kind"
	axisPositionKey  = "axis_position"
	axisScaleTypeKey = "axis_scale_type"
	axisLabelsKey    = "axis_labels"
	axisMinKey       = "axis_min"
	axisMaxKey       = "axis_max"
)

// AxisConfig configures a single axis.  ScaleType is ignored for value axes.
type AxisConfig struct {
	ID             string
	Kind           Kind
	Position       Position
	ScaleType      ScaleType
	TruncateLabels bool
}

// Extents is a resolved axis extent.  Category axes populate Labels; value
// axes populate Min and Max.
type Extents struct {
	Labels   []string
	Min, Max float64
}

// hourLabels is the HOURS vocabulary.
var hourLabels = []string{
	"0:00", "1:00", "2:00", "3:00", "4:00", "5:00", "6:00",
	"7:00", "8:00", "9:00", "10:00", "11:00", "12:00",
}

// Scale is the working scale of one axis.  Its vocabulary may be narrowed
// with RestrictTo.
type Scale struct {
	cfg        AxisConfig
	locale     *locale.Locale
	tz         *time.Location
	vocabulary []string
}

// New returns a Scale for cfg whose labels use l's vocabulary and are
// computed in tz.  A nil l selects locale.AmericanEnglish, and a nil tz UTC.
func New(cfg AxisConfig, l *locale.Locale, tz *time.Location) (*Scale, error) {
	if l == nil {
		l = locale.AmericanEnglish
	}
	if tz == nil {
		tz = time.UTC
	}
	s := &Scale{
		cfg:    cfg,
		locale: l,
		tz:     tz,
	}
	switch cfg.Kind {
	case Category:
		switch cfg.ScaleType {
		case Months:
			s.vocabulary = l.MonthNames(cfg.TruncateLabels)
		case Weeks:
			s.vocabulary = l.WeekdayNames(cfg.TruncateLabels)
		case Hours:
			s.vocabulary = append([]string{}, hourLabels...)
		case Meridiem:
			s.vocabulary = l.MeridiemNames()
		default:
			return nil, fmt.Errorf("%w: '%s'", ErrInvalidCategoryScaleType, cfg.ScaleType)
		}
	case Value:
	default:
		return nil, fmt.Errorf("%w: '%s', should be '%s' or '%s'", ErrInvalidAxisKind, cfg.Kind, Category, Value)
	}
	return s, nil
}

// Config returns the receiver's configuration.
func (s *Scale) Config() AxisConfig {
	return s.cfg
}

// Labels returns a copy of the receiver's working vocabulary.
func (s *Scale) Labels() []string {
	return append([]string{}, s.vocabulary...)
}

// Label returns the category label of t.
func (s *Scale) Label(t time.Time) (string, error) {
	if s.cfg.Kind != Category {
		return "", fmt.Errorf("%w: '%s' axes have no labels", ErrInvalidAxisKind, s.cfg.Kind)
	}
	t = t.In(s.tz)
	switch s.cfg.ScaleType {
	case Months:
		return s.locale.MonthLabel(t, s.cfg.TruncateLabels), nil
	case Weeks:
		return s.locale.WeekdayLabel(t, s.cfg.TruncateLabels), nil
	case Hours:
		h := t.Hour()
		if h > 12 {
			h -= 12
		}
		return hourLabels[h], nil
	case Meridiem:
		return s.locale.MeridiemLabel(t), nil
	}
	return "", fmt.Errorf("%w: '%s'", ErrInvalidCategoryScaleType, s.cfg.ScaleType)
}

// ResolveExtents returns the extents ds spans on the receiver.  For category
// axes, these are the vocabulary labels from that of the first point of the
// first series to that of its last point, inclusive.  For value axes, they
// are the minimum and maximum stacked point values across all series,
// widened to include 0.
func (s *Scale) ResolveExtents(ds *dataset.Dataset) (Extents, error) {
	switch s.cfg.Kind {
	case Category:
		series, err := ds.FirstSeries()
		if err != nil {
			return Extents{}, err
		}
		first, _ := series.First()
		last, _ := series.Last()
		min, err := s.Label(first.X)
		if err != nil {
			return Extents{}, err
		}
		max, err := s.Label(last.X)
		if err != nil {
			return Extents{}, err
		}
		return Extents{
			Labels: between(s.vocabulary, min, max),
		}, nil
	case Value:
		if err := ds.Calendar(); err != nil {
			return Extents{}, err
		}
		tops := ds.Tops()
		if len(tops) == 0 {
			return Extents{}, nil
		}
		min, max := stats.Bounds(tops)
		if min > 0 {
			min = 0
		}
		if max < 0 {
			max = 0
		}
		return Extents{Min: min, Max: max}, nil
	}
	return Extents{}, fmt.Errorf("%w: '%s'", ErrInvalidAxisKind, s.cfg.Kind)
}

// NumericIndexOf returns the 1-based position of label in the working
// vocabulary, or 0 if it is absent.
func (s *Scale) NumericIndexOf(label string) int {
	for idx, l := range s.vocabulary {
		if l == label {
			return idx + 1
		}
	}
	return 0
}

// RestrictTo narrows the working vocabulary to the labels from selectedMin
// through selectedMax, inclusive.  If selectedMin is absent, or follows
// selectedMax, the vocabulary becomes empty; if selectedMax is absent, the
// vocabulary runs from selectedMin to its end.
func (s *Scale) RestrictTo(selectedMin, selectedMax string) {
	s.vocabulary = between(s.vocabulary, selectedMin, selectedMax)
}

// between scans labels left to right, emitting from min until max is
// emitted.  A max seen before min empties the result.
func between(labels []string, min, max string) []string {
	ret := []string{}
	selected := false
	for _, l := range labels {
		if l == min {
			selected = true
		}
		if !selected {
			if l == max {
				return []string{}
			}
			continue
		}
		ret = append(ret, l)
		if l == max {
			break
		}
	}
	return ret
}

// Define annotates with a definition of the receiver and its working
// vocabulary.
func (s *Scale) Define() util.PropertyUpdate {
	return util.Chain(
		util.StringProperty(axisIDKey, s.cfg.ID),
		util.StringProperty(axisKindKey, string(s.cfg.Kind)),
		util.If(s.cfg.Position != "", util.StringProperty(axisPositionKey, string(s.cfg.Position))),
		util.If(s.cfg.Kind == Category, util.Chain(
			util.StringProperty(axisScaleTypeKey, string(s.cfg.ScaleType)),
			util.StringsProperty(axisLabelsKey, s.vocabulary...),
		)),
	)
}

// DefineExtents annotates with the numeric extents of a value axis.
func DefineExtents(e Extents) util.PropertyUpdate {
	return util.Chain(
		util.DoubleProperty(axisMinKey, e.Min),
		util.DoubleProperty(axisMaxKey, e.Max),
	)
}
