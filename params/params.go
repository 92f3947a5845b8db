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

// Package params defines the per-visualization parameters of a calendar
// heatmap and the stores they are loaded from.
package params

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ilhamster/calviz/locale"
	"github.com/spf13/viper"
)

// ErrInvalidParams is returned for parameters that cannot configure a chart.
var ErrInvalidParams = errors.New("invalid params")

// Chart types.
const (
	HeatmapYear  = "heatmap_year"
	HeatmapMonth = "heatmap_month"
)

// EnvPrefix prefixes the environment variables that override file-backed
// parameters, such as CALVIZ_GRID_CELLSIZE.
const EnvPrefix = "CALVIZ"

type Labels struct {
	Truncate bool `mapstructure:"truncate"`
}

// Grid is the requested grid geometry, in pixels.  CellSize is replaced by a
// width-derived size once a chart mode is known.
type Grid struct {
	CellSize float64 `mapstructure:"cellSize"`
	XOffset  float64 `mapstructure:"xOffset"`
	YOffset  float64 `mapstructure:"yOffset"`
}

type Margin struct {
	Top    float64 `mapstructure:"top"`
	Right  float64 `mapstructure:"right"`
	Bottom float64 `mapstructure:"bottom"`
	Left   float64 `mapstructure:"left"`
}

type Style struct {
	Margin Margin `mapstructure:"margin"`
}

// Params is the raw configuration of one visualization.
type Params struct {
	Type     string `mapstructure:"type"`
	Labels   Labels `mapstructure:"labels"`
	Locale   string `mapstructure:"locale"`
	TimeZone string `mapstructure:"timezone"`
	Grid     Grid   `mapstructure:"grid"`
	Style    Style  `mapstructure:"style"`
	// Colors are the stops of the cell color gradient, lowest value first,
	// as HTML hex colors.
	Colors []string `mapstructure:"colors"`
}

// DefaultColors is the default cell color gradient.
var DefaultColors = []string{"#ebedf0", "#9be9a8", "#40c463", "#30a14e", "#216e39"}

// Defaults returns the default parameters.
func Defaults() Params {
	return Params{
		Type:     HeatmapYear,
		Locale:   "en-US",
		TimeZone: "UTC",
		Grid: Grid{
			CellSize: 15,
			XOffset:  5,
			YOffset:  5,
		},
		Style: Style{
			Margin: Margin{Top: 10, Right: 3, Bottom: 5, Left: 3},
		},
		Colors: append([]string{}, DefaultColors...),
	}
}

// WithDefaults returns a copy of p with unset fields taken from Defaults().
func (p Params) WithDefaults() Params {
	d := Defaults()
	if p.Type == "" {
		p.Type = d.Type
	}
	if p.Locale == "" {
		p.Locale = d.Locale
	}
	if p.TimeZone == "" {
		p.TimeZone = d.TimeZone
	}
	if p.Grid.CellSize == 0 {
		p.Grid.CellSize = d.Grid.CellSize
	}
	if p.Grid.XOffset == 0 {
		p.Grid.XOffset = d.Grid.XOffset
	}
	if p.Grid.YOffset == 0 {
		p.Grid.YOffset = d.Grid.YOffset
	}
	if p.Style.Margin == (Margin{}) {
		p.Style.Margin = d.Style.Margin
	}
	if len(p.Colors) == 0 {
		p.Colors = d.Colors
	} else {
		p.Colors = append([]string{}, p.Colors...)
	}
	return p
}

// Validate returns an error if p cannot configure a chart.
func (p Params) Validate() error {
	switch p.Type {
	case HeatmapYear, HeatmapMonth:
	default:
		return fmt.Errorf("%w: unsupported chart type '%s'", ErrInvalidParams, p.Type)
	}
	if _, err := p.Location(); err != nil {
		return err
	}
	if p.Grid.CellSize < 0 || p.Grid.XOffset < 0 || p.Grid.YOffset < 0 {
		return fmt.Errorf("%w: negative grid geometry %+v", ErrInvalidParams, p.Grid)
	}
	return nil
}

// Location returns the time zone in which days are bucketed.  An empty
// TimeZone is UTC.
func (p Params) Location() (*time.Location, error) {
	if p.TimeZone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("%w: time zone '%s': %s", ErrInvalidParams, p.TimeZone, err)
	}
	return loc, nil
}

// CalendarLocale returns the supported locale best matching p's Locale.
func (p Params) CalendarLocale() *locale.Locale {
	return locale.Match(p.Locale)
}

// Store is implemented by sources of visualization parameters.  Load returns
// the current parameters; unset fields are left at their zero values.
type Store interface {
	Load() (Params, error)
}

// StaticStore is an in-memory Store.
type StaticStore struct {
	mu sync.RWMutex
	p  Params
}

// NewStaticStore returns a StaticStore holding p.
func NewStaticStore(p Params) *StaticStore {
	return &StaticStore{p: p}
}

// Load returns the stored parameters.
func (ss *StaticStore) Load() (Params, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	return ss.p, nil
}

// Set replaces the stored parameters.
func (ss *StaticStore) Set(p Params) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.p = p
}

// FileStore is a Store backed by a YAML, JSON, or TOML file, re-read on
// every Load.  Environment variables named EnvPrefix_<KEY>, with '.' in keys
// replaced by '_', override the file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore reading the file at path.  The file
// format is inferred from its extension.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and decodes the parameter file.
func (fs *FileStore) Load() (Params, error) {
	v := viper.New()
	v.SetConfigFile(fs.path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unmarshal only sees environment overrides of bound keys.
	for _, key := range []string{
		"type", "labels.truncate", "locale", "timezone",
		"grid.cellSize", "grid.xOffset", "grid.yOffset",
		"style.margin.top", "style.margin.right", "style.margin.bottom", "style.margin.left",
		"colors",
	} {
		if err := v.BindEnv(key); err != nil {
			return Params{}, err
		}
	}
	if err := v.ReadInConfig(); err != nil {
		return Params{}, fmt.Errorf("error loading params from '%s': %w", fs.path, err)
	}
	var p Params
	if err := v.Unmarshal(&p); err != nil {
		return Params{}, fmt.Errorf("error unmarshaling params from '%s': %w", fs.path, err)
	}
	return p, nil
}
