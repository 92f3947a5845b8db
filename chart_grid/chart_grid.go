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

// Package chartgrid lays out the day cells of a calendar heatmap.  In year
// mode, months are laid out left to right, each as a block of week columns
// with one row per weekday.  In month mode, a single month is laid out with
// one column per weekday and one row per week.
package chartgrid

import (
	"errors"
	"fmt"
	"time"

	"github.com/ilhamster/calviz/dataset"
	"github.com/ilhamster/calviz/locale"
)

// ErrInvalidChartMode is returned when laying out a chart in a mode other
// than ModeYear or ModeMonth.
var ErrInvalidChartMode = errors.New("invalid chart mode")

// Mode is a chart mode.
type Mode int

const (
	// ModeUnset is the mode before any time range has been seen.
	ModeUnset Mode = iota
	// ModeDay charts a single day.  It cannot be laid out.
	ModeDay
	ModeMonth
	ModeYear
)

func (m Mode) String() string {
	switch m {
	case ModeUnset:
		return "unset"
	case ModeDay:
		return "day"
	case ModeMonth:
		return "month"
	case ModeYear:
		return "year"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a Mode from its String form.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeUnset, ModeDay, ModeMonth, ModeYear} {
		if m.String() == s {
			return m, nil
		}
	}
	return ModeUnset, fmt.Errorf("%w: '%s'", ErrInvalidChartMode, s)
}

// DayFormat is the layout of the date in a cell ID.
const DayFormat = "2006-01-02"

// GridConfig is the geometry of a grid, in pixels.
type GridConfig struct {
	CellSize float64
	XOffset  float64
	YOffset  float64
}

// DefaultGridConfig returns the default grid geometry.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		CellSize: 15,
		XOffset:  5,
		YOffset:  5,
	}
}

// Interval is the calendar range a grid covers: every day from Start,
// inclusive, to End, exclusive.  StartMonth and EndMonth, 1-based, are only
// set in year mode.
type Interval struct {
	Mode                 Mode
	StartMonth, EndMonth int
	Start, End           time.Time

	locale    *locale.Locale
	startWeek int
}

// ComputeInterval returns the interval a chart of ds covers in the provided
// mode.  In year mode, it covers the months from that of the first point of
// the first series through that of its last point; in month mode, the month
// of the first point.  Dates are taken in tz, and weeks are numbered per l.
// Nil l and tz select locale.AmericanEnglish and UTC.
func ComputeInterval(mode Mode, ds *dataset.Dataset, l *locale.Locale, tz *time.Location) (Interval, error) {
	if mode != ModeYear && mode != ModeMonth {
		return Interval{}, fmt.Errorf("%w: cannot lay out a %s chart", ErrInvalidChartMode, mode)
	}
	series, err := ds.FirstSeries()
	if err != nil {
		return Interval{}, err
	}
	if l == nil {
		l = locale.AmericanEnglish
	}
	if tz == nil {
		tz = time.UTC
	}
	first, _ := series.First()
	last, _ := series.Last()
	firstX, lastX := first.X.In(tz), last.X.In(tz)
	iv := Interval{
		Mode:   mode,
		locale: l,
	}
	switch mode {
	case ModeYear:
		iv.StartMonth, iv.EndMonth = int(firstX.Month()), int(lastX.Month())
		iv.Start = time.Date(firstX.Year(), firstX.Month(), 1, 0, 0, 0, 0, tz)
		iv.End = time.Date(lastX.Year(), lastX.Month()+1, 1, 0, 0, 0, 0, tz)
		iv.startWeek = l.Week(iv.Start) % 52
	case ModeMonth:
		iv.Start = time.Date(firstX.Year(), firstX.Month(), 1, 0, 0, 0, 0, tz)
		iv.End = iv.Start.AddDate(0, 1, 0)
	}
	return iv, nil
}

// Days returns every day in the interval, in order.
func (iv Interval) Days() []time.Time {
	var ret []time.Time
	for d := iv.Start; d.Before(iv.End); d = d.AddDate(0, 0, 1) {
		ret = append(ret, d)
	}
	return ret
}

// Cell is a positioned day cell.
type Cell struct {
	ID   string
	Date time.Time
	// Month is the 1-based month of Date in year mode, and 0 in month mode.
	Month int
	X, Y  float64
	// Size is the cell's width and height, and Radius its corner radius.
	Size, Radius float64
}

func mod(a, b int) int {
	return ((a % b) + b) % b
}

func monthsBetween(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

// CellCoordinate positions the cell for d within iv.
//
// In year mode, a cell's column is its month's block plus its week within
// the interval, modulo 52.  The week term is measured from the interval's
// first week, so in a year whose January 1 falls in the previous year's week
// 53 the first two week columns coincide.
func CellCoordinate(d time.Time, iv Interval, gc GridConfig) (Cell, error) {
	l := iv.locale
	if l == nil {
		l = locale.AmericanEnglish
	}
	cell := Cell{
		ID:     "day_" + d.Format(DayFormat),
		Date:   d,
		Size:   gc.CellSize,
		Radius: gc.CellSize / 10,
	}
	switch iv.Mode {
	case ModeYear:
		weekCol := mod(l.Week(d)-iv.startWeek, 52)
		cell.Month = int(d.Month())
		cell.X = float64(monthsBetween(iv.Start, d))*1.5*gc.CellSize +
			2*gc.XOffset +
			float64(weekCol)*gc.CellSize
		cell.Y = 3*gc.YOffset + float64(l.WeekdayIndex(d))*gc.CellSize
	case ModeMonth:
		cell.X = 2*gc.XOffset + float64(l.WeekdayIndex(d))*gc.CellSize
		cell.Y = 3*gc.YOffset + float64(l.WeeksBetween(iv.Start, d))*gc.CellSize
	default:
		return Cell{}, fmt.Errorf("%w: cannot lay out a %s chart", ErrInvalidChartMode, iv.Mode)
	}
	return cell, nil
}

// Layout returns the positioned cells of every day in iv.
func Layout(iv Interval, gc GridConfig) ([]Cell, error) {
	days := iv.Days()
	ret := make([]Cell, 0, len(days))
	for _, d := range days {
		cell, err := CellCoordinate(d, iv, gc)
		if err != nil {
			return nil, err
		}
		ret = append(ret, cell)
	}
	return ret, nil
}
