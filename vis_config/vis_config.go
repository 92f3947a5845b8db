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

// Package visconfig derives the configuration of a calendar heatmap (its
// chart mode, category axes, and cell size) from the active time range and
// the width of the container it is drawn in.
//
// Configuration is an explicit State value.  Update applies one update event
// to a State and returns the resulting State, leaving its input unchanged.
package visconfig

import (
	"errors"
	"fmt"
	"time"

	calendaraxis "github.com/ilhamster/calviz/calendar_axis"
	chartgrid "github.com/ilhamster/calviz/chart_grid"
	"github.com/ilhamster/calviz/params"
)

// Axis IDs.
const (
	CategoryAxis1 = "CategoryAxis-1"
	CategoryAxis2 = "CategoryAxis-2"
	ValueAxis1    = "ValueAxis-1"
)

// Cell size bounds, in pixels, per mode.
const (
	yearMinCellSize  = 15
	yearMaxCellSize  = 20
	monthMinCellSize = 35
	monthMaxCellSize = 50
)

// UpdateStatus flags what changed in an update event.
type UpdateStatus struct {
	Data, Resize, Time, Params bool
}

func (us UpdateStatus) String() string {
	ret := ""
	for _, f := range []struct {
		set  bool
		name string
	}{{us.Params, "params"}, {us.Data, "data"}, {us.Time, "time"}, {us.Resize, "resize"}} {
		if !f.set {
			continue
		}
		if ret != "" {
			ret += "+"
		}
		ret += f.name
	}
	if ret == "" {
		return "none"
	}
	return ret
}

// Env is the host environment an update is evaluated in.
type Env struct {
	// The active time range.
	From, To time.Time
	// The width, in pixels, of the chart's container.
	ContainerWidth float64
	// Where parameters are reloaded from on a params update.
	Params params.Store
}

// Config is the working configuration of a chart.
type Config struct {
	Params       params.Params
	Grid         chartgrid.GridConfig
	CategoryAxes []calendaraxis.AxisConfig
	ValueAxes    []calendaraxis.AxisConfig
}

func (c Config) clone() Config {
	c.Params.Colors = append([]string{}, c.Params.Colors...)
	c.CategoryAxes = append([]calendaraxis.AxisConfig{}, c.CategoryAxes...)
	c.ValueAxes = append([]calendaraxis.AxisConfig{}, c.ValueAxes...)
	return c
}

// Location returns the time zone the chart's days are bucketed in.
func (c Config) Location() (*time.Location, error) {
	return c.Params.Location()
}

// State is the state of one chart: its last resolved mode and its working
// configuration.
type State struct {
	Mode   chartgrid.Mode
	Config Config
}

func configFromParams(p params.Params) (Config, error) {
	p = p.WithDefaults()
	if err := p.Validate(); err != nil {
		return Config{}, err
	}
	return Config{
		Params: p,
		Grid: chartgrid.GridConfig{
			CellSize: p.Grid.CellSize,
			XOffset:  p.Grid.XOffset,
			YOffset:  p.Grid.YOffset,
		},
		ValueAxes: []calendaraxis.AxisConfig{{
			ID:   ValueAxis1,
			Kind: calendaraxis.Value,
		}},
	}, nil
}

// modeForType returns the chart mode named by a params chart type.
func modeForType(chartType string) chartgrid.Mode {
	switch chartType {
	case params.HeatmapMonth:
		return chartgrid.ModeMonth
	case params.HeatmapYear:
		return chartgrid.ModeYear
	}
	return chartgrid.ModeUnset
}

// New returns the initial State for p.  Its mode is the one named by p's
// chart type, which ranges too short to pick a mode of their own keep.
func New(p params.Params) (State, error) {
	cfg, err := configFromParams(p)
	if err != nil {
		return State{}, err
	}
	return State{
		Mode:   modeForType(cfg.Params.Type),
		Config: cfg,
	}, nil
}

// Update applies the update event flagged by status to s under env, and
// returns the new State.  Flags are applied in a fixed order: params, then
// data, then time, then resize.
func Update(s State, status UpdateStatus, env Env) (State, error) {
	ret := State{
		Mode:   s.Mode,
		Config: s.Config.clone(),
	}
	if status.Params {
		if env.Params == nil {
			return s, errors.New("params update with no params store")
		}
		p, err := env.Params.Load()
		if err != nil {
			return s, fmt.Errorf("failed to reload params: %w", err)
		}
		cfg, err := configFromParams(p)
		if err != nil {
			return s, err
		}
		ret.Config = cfg
		ret.Mode = modeForType(cfg.Params.Type)
	}
	if status.Data {
		if err := ret.updateTime(env); err != nil {
			return s, err
		}
		ret.updateGrid(env)
	}
	if status.Time {
		if err := ret.updateTime(env); err != nil {
			return s, err
		}
	}
	if status.Resize {
		ret.updateGrid(env)
	}
	return ret, nil
}

func (s *State) updateTime(env Env) error {
	tz, err := s.Config.Location()
	if err != nil {
		return err
	}
	s.Mode = ModeForRange(env.From, env.To, tz, s.Mode)
	truncate := s.Config.Params.Labels.Truncate
	switch s.Mode {
	case chartgrid.ModeMonth:
		s.Config.Params.Type = params.HeatmapMonth
		s.Config.CategoryAxes = []calendaraxis.AxisConfig{{
			ID:             CategoryAxis1,
			Kind:           calendaraxis.Category,
			Position:       calendaraxis.Top,
			ScaleType:      calendaraxis.Weeks,
			TruncateLabels: truncate,
		}}
	case chartgrid.ModeYear:
		s.Config.Params.Type = params.HeatmapYear
		s.Config.CategoryAxes = []calendaraxis.AxisConfig{{
			ID:             CategoryAxis1,
			Kind:           calendaraxis.Category,
			Position:       calendaraxis.Top,
			ScaleType:      calendaraxis.Months,
			TruncateLabels: truncate,
		}, {
			ID:             CategoryAxis2,
			Kind:           calendaraxis.Category,
			Position:       calendaraxis.Left,
			ScaleType:      calendaraxis.Weeks,
			TruncateLabels: truncate,
		}}
	}
	return nil
}

func (s *State) updateGrid(env Env) {
	if cellSize, ok := CellSize(s.Mode, env.ContainerWidth); ok {
		s.Config.Grid.CellSize = cellSize
	}
}

// DaySpan returns the number of whole days from from to to, truncated toward
// zero.  Differences in the two instants' UTC offsets, as across a daylight
// saving transition, are discounted.
func DaySpan(from, to time.Time) int {
	_, fromOffset := from.Zone()
	_, toOffset := to.Zone()
	d := to.Sub(from) + time.Duration(toOffset-fromOffset)*time.Second
	return int(d / (24 * time.Hour))
}

// ModeForRange returns the chart mode for the time range [from, to] viewed in
// tz.  A span of at most one day is ModeDay; a span under 32 days within a
// single month is ModeMonth; a span over 31 days is ModeYear.  A span under 32
// days crossing a month boundary keeps the previous mode, prev.
func ModeForRange(from, to time.Time, tz *time.Location, prev chartgrid.Mode) chartgrid.Mode {
	if tz != nil {
		from, to = from.In(tz), to.In(tz)
	}
	diff := DaySpan(from, to)
	switch {
	case diff <= 1:
		return chartgrid.ModeDay
	case diff < 32 && from.Month() == to.Month():
		return chartgrid.ModeMonth
	case diff > 31:
		return chartgrid.ModeYear
	}
	return prev
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// CellSize returns the cell size, in pixels, for a chart in mode drawn in a
// container of the provided width.  It returns false for modes with no grid.
func CellSize(mode chartgrid.Mode, containerWidth float64) (float64, bool) {
	switch mode {
	case chartgrid.ModeYear:
		return clamp(containerWidth*1.5/100, yearMinCellSize, yearMaxCellSize), true
	case chartgrid.ModeMonth:
		return clamp(containerWidth*4/100, monthMinCellSize, monthMaxCellSize), true
	}
	return 0, false
}
