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

// Package heatmap assembles calendar heatmaps: it resolves a chart's axes,
// lays out its day cells, colors each cell by its day's value, and renders
// the result as SVG or as a structured data response.
//
// The structured encoding of a Chart is:
//
//	chart_mode: "year" or "month"
//	cell_size, x_offset, y_offset: the grid geometry
//	color_space_value: the cell color space
//	axes
//	  <one child per axis, category axes first>
//	<one child per day cell>
//	  cell_id, cell_date, cell_x, cell_y, cell_month (year mode only),
//	  cell_value (days with data only), the cell's color space value and
//	  rendered fill, and its style.
package heatmap

import (
	"fmt"
	"io"
	"math"
	"time"

	svg "github.com/ajstarks/svgo"
	calendaraxis "github.com/ilhamster/calviz/calendar_axis"
	chartgrid "github.com/ilhamster/calviz/chart_grid"
	"github.com/ilhamster/calviz/color"
	"github.com/ilhamster/calviz/dataset"
	"github.com/ilhamster/calviz/locale"
	"github.com/ilhamster/calviz/params"
	"github.com/ilhamster/calviz/style"
	"github.com/ilhamster/calviz/util"
	visconfig "github.com/ilhamster/calviz/vis_config"
)

const (
	chartModeKey = "chart_mode"
	cellSizeKey  = "cell_size"
	xOffsetKey   = "x_offset"
	yOffsetKey   = "y_offset"
	cellIDKey    = "cell_id"
	cellDateKey  = "cell_date"
	cellXKey     = "cell_x"
	cellYKey     = "cell_y"
	cellMonthKey = "cell_month"
	cellValueKey = "cell_value"

	valueColorSpace = "value"
	// SVGID is the id of the root SVG element.
	SVGID = "all-days"
)

// Cell is a positioned, colored day cell.
type Cell struct {
	chartgrid.Cell
	// Value is the sum of the day's values.  HasValue is false for days with
	// no data, which are colored as 0.
	Value    float64
	HasValue bool
	Fill     string
}

// Chart is an assembled heatmap.
type Chart struct {
	Mode     chartgrid.Mode
	Grid     chartgrid.GridConfig
	Interval chartgrid.Interval
	Margin   params.Margin
	// Category axes, restricted to the labels the data spans.
	CategoryAxes []*calendaraxis.Scale
	ValueAxis    *calendaraxis.Scale
	ValueExtents calendaraxis.Extents
	Space        *color.Space
	Cells        []Cell
}

// Build assembles the heatmap of ds under the configuration in s.  Days are
// taken in tz and labeled and numbered per l; nil l and tz select
// s's configured locale and time zone.
func Build(s visconfig.State, ds *dataset.Dataset, l *locale.Locale, tz *time.Location) (*Chart, error) {
	if err := ds.Calendar(); err != nil {
		return nil, err
	}
	if l == nil {
		l = s.Config.Params.CalendarLocale()
	}
	if tz == nil {
		var err error
		if tz, err = s.Config.Location(); err != nil {
			return nil, err
		}
	}
	chart := &Chart{
		Mode:   s.Mode,
		Grid:   s.Config.Grid,
		Margin: s.Config.Params.Style.Margin,
	}
	for _, cfg := range s.Config.CategoryAxes {
		scale, err := calendaraxis.New(cfg, l, tz)
		if err != nil {
			return nil, err
		}
		extents, err := scale.ResolveExtents(ds)
		if err != nil {
			return nil, err
		}
		if len(extents.Labels) == 0 {
			scale.RestrictTo("", "")
		} else {
			scale.RestrictTo(extents.Labels[0], extents.Labels[len(extents.Labels)-1])
		}
		chart.CategoryAxes = append(chart.CategoryAxes, scale)
	}
	valueCfg := calendaraxis.AxisConfig{ID: visconfig.ValueAxis1, Kind: calendaraxis.Value}
	if len(s.Config.ValueAxes) > 0 {
		valueCfg = s.Config.ValueAxes[0]
	}
	valueAxis, err := calendaraxis.New(valueCfg, l, tz)
	if err != nil {
		return nil, err
	}
	chart.ValueAxis = valueAxis
	if chart.ValueExtents, err = valueAxis.ResolveExtents(ds); err != nil {
		return nil, err
	}
	colors := s.Config.Params.Colors
	if len(colors) == 0 {
		colors = params.DefaultColors
	}
	if chart.Space, err = color.NewSpace(valueColorSpace, colors...); err != nil {
		return nil, err
	}
	if chart.Interval, err = chartgrid.ComputeInterval(s.Mode, ds, l, tz); err != nil {
		return nil, err
	}
	cells, err := chartgrid.Layout(chart.Interval, chart.Grid)
	if err != nil {
		return nil, err
	}
	values := dayValues(ds.Series[0], tz)
	chart.Cells = make([]Cell, len(cells))
	for idx, cell := range cells {
		v, ok := values[cell.Date.Format(chartgrid.DayFormat)]
		chart.Cells[idx] = Cell{
			Cell:     cell,
			Value:    v,
			HasValue: ok,
			Fill:     chart.Space.Map(chart.normalize(v)),
		}
	}
	return chart, nil
}

// dayValues sums the tops of series' points by day.
func dayValues(series *dataset.Series, tz *time.Location) map[string]float64 {
	ret := map[string]float64{}
	for _, p := range series.Points {
		ret[p.X.In(tz).Format(chartgrid.DayFormat)] += p.Top()
	}
	return ret
}

func (c *Chart) normalize(v float64) float64 {
	return color.Normalize(v, c.ValueExtents.Min, c.ValueExtents.Max)
}

// Cell returns the cell for the specified day, if the chart has one.
func (c *Chart) Cell(day time.Time) (Cell, bool) {
	id := "day_" + day.Format(chartgrid.DayFormat)
	for _, cell := range c.Cells {
		if cell.ID == id {
			return cell, true
		}
	}
	return Cell{}, false
}

func (c *Chart) cellStyle(cell Cell) *style.Style {
	ret := style.New().
		With("id", cell.ID).
		With("class", "day").
		With("fill", cell.Fill)
	if c.Mode == chartgrid.ModeYear {
		ret.With("data-month", fmt.Sprintf("%d", cell.Month))
	}
	return ret
}

func px(v float64) int {
	return int(math.Round(v))
}

// Size returns the pixel width and height of the rendered chart, margins
// included.
func (c *Chart) Size() (width, height int) {
	var maxX, maxY float64
	for _, cell := range c.Cells {
		maxX = math.Max(maxX, cell.X+cell.Size)
		maxY = math.Max(maxY, cell.Y+cell.Size)
	}
	return px(maxX + c.Margin.Left + c.Margin.Right), px(maxY + c.Margin.Top + c.Margin.Bottom)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return len(p), nil
	}
	n, err := ew.w.Write(p)
	if err != nil {
		ew.err = err
	}
	return n, err
}

// WriteSVG renders the chart to w as an SVG document whose root has the id
// SVGID, with one <g><rect class="day"> per cell.  Coordinates are rounded to
// whole pixels.
func (c *Chart) WriteSVG(w io.Writer) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	width, height := c.Size()
	canvas.Start(width, height, fmt.Sprintf(`id="%s"`, SVGID))
	canvas.Group(fmt.Sprintf(`transform="translate(%s,%s)"`, style.Num(c.Margin.Left), style.Num(c.Margin.Top)))
	for _, cell := range c.Cells {
		canvas.Group()
		canvas.Roundrect(
			px(cell.X), px(cell.Y), px(cell.Size), px(cell.Size),
			px(cell.Radius), px(cell.Radius),
			c.cellStyle(cell).Attrs()...,
		)
		canvas.Gend()
	}
	canvas.Gend()
	canvas.End()
	return ew.err
}

// Define writes the chart into db.
func (c *Chart) Define(db util.DataBuilder) {
	db.With(
		util.StringProperty(chartModeKey, c.Mode.String()),
		util.DoubleProperty(cellSizeKey, c.Grid.CellSize),
		util.DoubleProperty(xOffsetKey, c.Grid.XOffset),
		util.DoubleProperty(yOffsetKey, c.Grid.YOffset),
		c.Space.Define(),
	)
	axes := db.Child()
	for _, axis := range c.CategoryAxes {
		axes.Child().With(axis.Define())
	}
	axes.Child().With(
		c.ValueAxis.Define(),
		calendaraxis.DefineExtents(c.ValueExtents),
	)
	for _, cell := range c.Cells {
		db.Child().With(
			util.StringProperty(cellIDKey, cell.ID),
			util.TimestampProperty(cellDateKey, cell.Date),
			util.DoubleProperty(cellXKey, cell.X),
			util.DoubleProperty(cellYKey, cell.Y),
			util.If(c.Mode == chartgrid.ModeYear, util.IntegerProperty(cellMonthKey, int64(cell.Month))),
			util.If(cell.HasValue, util.DoubleProperty(cellValueKey, cell.Value)),
			c.Space.PrimaryColor(c.normalize(cell.Value)),
			color.Primary(cell.Fill),
			style.New().With("rx", style.Num(cell.Radius)).With("ry", style.Num(cell.Radius)).Define(),
		)
	}
}
