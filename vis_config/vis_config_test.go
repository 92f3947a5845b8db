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

package visconfig

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	calendaraxis "github.com/ilhamster/calviz/calendar_axis"
	chartgrid "github.com/ilhamster/calviz/chart_grid"
	"github.com/ilhamster/calviz/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2021, month, day, 0, 0, 0, 0, time.UTC)
}

func newState(t *testing.T) State {
	t.Helper()
	s, err := New(params.Params{})
	require.NoError(t, err)
	return s
}

func TestModeForRange(t *testing.T) {
	for _, test := range []struct {
		description string
		from, to    time.Time
		prev        chartgrid.Mode
		want        chartgrid.Mode
	}{
		{"one day", date(time.June, 1), date(time.June, 2), chartgrid.ModeUnset, chartgrid.ModeDay},
		{"under a day", date(time.June, 1), date(time.June, 1).Add(23 * time.Hour), chartgrid.ModeYear, chartgrid.ModeDay},
		{"two days", date(time.June, 1), date(time.June, 3), chartgrid.ModeUnset, chartgrid.ModeMonth},
		{"jun 1 to 20", date(time.June, 1), date(time.June, 20), chartgrid.ModeUnset, chartgrid.ModeMonth},
		{"whole month", date(time.January, 1), date(time.January, 31).Add(23 * time.Hour), chartgrid.ModeUnset, chartgrid.ModeMonth},
		{"jan 5 to mar 20", date(time.January, 5), date(time.March, 20), chartgrid.ModeUnset, chartgrid.ModeYear},
		{"32 days", date(time.January, 1), date(time.February, 2), chartgrid.ModeMonth, chartgrid.ModeYear},
		{"short span across months keeps unset", date(time.June, 20), date(time.July, 5), chartgrid.ModeUnset, chartgrid.ModeUnset},
		{"short span across months keeps year", date(time.June, 20), date(time.July, 5), chartgrid.ModeYear, chartgrid.ModeYear},
		{"31 days across months keeps month", date(time.January, 1), date(time.February, 1), chartgrid.ModeMonth, chartgrid.ModeMonth},
	} {
		t.Run(test.description, func(t *testing.T) {
			if got := ModeForRange(test.from, test.to, time.UTC, test.prev); got != test.want {
				t.Errorf("ModeForRange() = %s, want %s", got, test.want)
			}
		})
	}
}

func TestDaySpan(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// Daylight saving time starts March 14 2021 in New York.
	from := time.Date(2021, time.March, 1, 0, 0, 0, 0, ny)
	to := time.Date(2021, time.March, 15, 0, 0, 0, 0, ny)
	assert.Equal(t, 14, DaySpan(from, to))
	assert.Equal(t, -14, DaySpan(to, from))
	assert.Equal(t, 74, DaySpan(date(time.January, 5), date(time.March, 20)))
	assert.Equal(t, 0, DaySpan(date(time.June, 1), date(time.June, 1).Add(23*time.Hour)))
}

func TestCellSize(t *testing.T) {
	for _, test := range []struct {
		mode   chartgrid.Mode
		width  float64
		want   float64
		wantOK bool
	}{
		{chartgrid.ModeYear, 1000, 15, true},
		{chartgrid.ModeYear, 1200, 18, true},
		{chartgrid.ModeYear, 2000, 20, true},
		{chartgrid.ModeYear, 100, 15, true},
		{chartgrid.ModeMonth, 500, 35, true},
		{chartgrid.ModeMonth, 1000, 40, true},
		{chartgrid.ModeMonth, 2000, 50, true},
		{chartgrid.ModeDay, 1000, 0, false},
		{chartgrid.ModeUnset, 1000, 0, false},
	} {
		got, ok := CellSize(test.mode, test.width)
		if got != test.want || ok != test.wantOK {
			t.Errorf("CellSize(%s, %v) = %v, %t, want %v, %t", test.mode, test.width, got, ok, test.want, test.wantOK)
		}
	}
}

func TestUpdate(t *testing.T) {
	monthAxes := []calendaraxis.AxisConfig{{
		ID:        CategoryAxis1,
		Kind:      calendaraxis.Category,
		Position:  calendaraxis.Top,
		ScaleType: calendaraxis.Weeks,
	}}
	yearAxes := []calendaraxis.AxisConfig{{
		ID:        CategoryAxis1,
		Kind:      calendaraxis.Category,
		Position:  calendaraxis.Top,
		ScaleType: calendaraxis.Months,
	}, {
		ID:        CategoryAxis2,
		Kind:      calendaraxis.Category,
		Position:  calendaraxis.Left,
		ScaleType: calendaraxis.Weeks,
	}}
	for _, test := range []struct {
		description  string
		status       UpdateStatus
		env          Env
		wantMode     chartgrid.Mode
		wantType     string
		wantAxes     []calendaraxis.AxisConfig
		wantCellSize float64
	}{{
		description:  "data in june, month mode",
		status:       UpdateStatus{Data: true},
		env:          Env{From: date(time.June, 1), To: date(time.June, 20), ContainerWidth: 1000},
		wantMode:     chartgrid.ModeMonth,
		wantType:     params.HeatmapMonth,
		wantAxes:     monthAxes,
		wantCellSize: 40,
	}, {
		description:  "data over 74 days, year mode",
		status:       UpdateStatus{Data: true},
		env:          Env{From: date(time.January, 5), To: date(time.March, 20), ContainerWidth: 2000},
		wantMode:     chartgrid.ModeYear,
		wantType:     params.HeatmapYear,
		wantAxes:     yearAxes,
		wantCellSize: 20,
	}, {
		description:  "time alone leaves the cell size",
		status:       UpdateStatus{Time: true},
		env:          Env{From: date(time.June, 1), To: date(time.June, 20), ContainerWidth: 1000},
		wantMode:     chartgrid.ModeMonth,
		wantType:     params.HeatmapMonth,
		wantAxes:     monthAxes,
		wantCellSize: 15,
	}, {
		description:  "resize alone sizes the configured year grid",
		status:       UpdateStatus{Resize: true},
		env:          Env{ContainerWidth: 2000},
		wantMode:     chartgrid.ModeYear,
		wantType:     params.HeatmapYear,
		wantCellSize: 20,
	}, {
		description:  "short range across months keeps the configured year mode",
		status:       UpdateStatus{Data: true},
		env:          Env{From: date(time.June, 20), To: date(time.July, 10), ContainerWidth: 1000},
		wantMode:     chartgrid.ModeYear,
		wantType:     params.HeatmapYear,
		wantAxes:     yearAxes,
		wantCellSize: 15,
	}, {
		description:  "day view leaves axes and cell size",
		status:       UpdateStatus{Data: true},
		env:          Env{From: date(time.June, 1), To: date(time.June, 2), ContainerWidth: 2000},
		wantMode:     chartgrid.ModeDay,
		wantType:     params.HeatmapYear,
		wantCellSize: 15,
	}, {
		description: "params are applied before data and resize",
		status:      UpdateStatus{Params: true, Data: true, Resize: true},
		env: Env{
			From:           date(time.June, 1),
			To:             date(time.June, 20),
			ContainerWidth: 1100,
			Params: params.NewStaticStore(params.Params{
				Labels: params.Labels{Truncate: true},
				Grid:   params.Grid{CellSize: 99},
			}),
		},
		wantMode: chartgrid.ModeMonth,
		wantType: params.HeatmapMonth,
		wantAxes: []calendaraxis.AxisConfig{{
			ID:             CategoryAxis1,
			Kind:           calendaraxis.Category,
			Position:       calendaraxis.Top,
			ScaleType:      calendaraxis.Weeks,
			TruncateLabels: true,
		}},
		wantCellSize: 44,
	}, {
		description:  "params alone reset the working config",
		status:       UpdateStatus{Params: true},
		env:          Env{Params: params.NewStaticStore(params.Params{Grid: params.Grid{CellSize: 17}})},
		wantMode:     chartgrid.ModeYear,
		wantType:     params.HeatmapYear,
		wantCellSize: 17,
	}} {
		t.Run(test.description, func(t *testing.T) {
			got, err := Update(newState(t), test.status, test.env)
			require.NoError(t, err)
			assert.Equal(t, test.wantMode, got.Mode)
			assert.Equal(t, test.wantType, got.Config.Params.Type)
			if diff := cmp.Diff(test.wantAxes, got.Config.CategoryAxes, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Update(%s) category axes diff (-want +got):\n%s", test.status, diff)
			}
			assert.Equal(t, test.wantCellSize, got.Config.Grid.CellSize)
		})
	}
}

func TestUpdateSequence(t *testing.T) {
	s := newState(t)
	june := Env{From: date(time.June, 1), To: date(time.June, 20), ContainerWidth: 1000}
	s, err := Update(s, UpdateStatus{Time: true}, june)
	require.NoError(t, err)
	require.Equal(t, chartgrid.ModeMonth, s.Mode)
	s, err = Update(s, UpdateStatus{Resize: true}, june)
	require.NoError(t, err)
	assert.Equal(t, 40.0, s.Config.Grid.CellSize)

	// A short range spanning two months keeps month mode.
	crossing := Env{From: date(time.June, 20), To: date(time.July, 5), ContainerWidth: 1000}
	s, err = Update(s, UpdateStatus{Time: true}, crossing)
	require.NoError(t, err)
	assert.Equal(t, chartgrid.ModeMonth, s.Mode)

	year := Env{From: date(time.January, 5), To: date(time.March, 20), ContainerWidth: 1000}
	s, err = Update(s, UpdateStatus{Time: true, Resize: true}, year)
	require.NoError(t, err)
	assert.Equal(t, chartgrid.ModeYear, s.Mode)
	assert.Equal(t, 15.0, s.Config.Grid.CellSize)
	assert.Len(t, s.Config.CategoryAxes, 2)
}

func TestUpdateIsPure(t *testing.T) {
	s := newState(t)
	year, err := Update(s, UpdateStatus{Data: true}, Env{From: date(time.January, 5), To: date(time.March, 20), ContainerWidth: 1000})
	require.NoError(t, err)
	month, err := Update(year, UpdateStatus{Data: true}, Env{From: date(time.June, 1), To: date(time.June, 20), ContainerWidth: 1000})
	require.NoError(t, err)
	assert.Equal(t, chartgrid.ModeYear, s.Mode)
	assert.Empty(t, s.Config.CategoryAxes)
	assert.Equal(t, chartgrid.ModeYear, year.Mode)
	assert.Len(t, year.Config.CategoryAxes, 2)
	assert.Equal(t, 15.0, year.Config.Grid.CellSize)
	assert.Equal(t, chartgrid.ModeMonth, month.Mode)
	assert.Len(t, month.Config.CategoryAxes, 1)
	// Mutating the new state's axes leaves the old state's alone.
	month.Config.ValueAxes[0].ID = "changed"
	assert.Equal(t, ValueAxis1, year.Config.ValueAxes[0].ID)
}

func TestNewModeFromType(t *testing.T) {
	for _, test := range []struct {
		chartType string
		wantMode  chartgrid.Mode
	}{
		{"", chartgrid.ModeYear},
		{params.HeatmapYear, chartgrid.ModeYear},
		{params.HeatmapMonth, chartgrid.ModeMonth},
	} {
		t.Run(test.chartType, func(t *testing.T) {
			s, err := New(params.Params{Type: test.chartType})
			require.NoError(t, err)
			assert.Equal(t, test.wantMode, s.Mode)
		})
	}
}

func TestParamsReloadReseedsMode(t *testing.T) {
	s, err := New(params.Params{Type: params.HeatmapMonth})
	require.NoError(t, err)
	june := Env{From: date(time.June, 20), To: date(time.July, 10), ContainerWidth: 1000}
	s, err = Update(s, UpdateStatus{Data: true}, june)
	require.NoError(t, err)
	assert.Equal(t, chartgrid.ModeMonth, s.Mode)

	june.Params = params.NewStaticStore(params.Params{Type: params.HeatmapYear})
	s, err = Update(s, UpdateStatus{Params: true, Data: true}, june)
	require.NoError(t, err)
	assert.Equal(t, chartgrid.ModeYear, s.Mode)
	assert.Len(t, s.Config.CategoryAxes, 2)
}

type failingStore struct{}

func (failingStore) Load() (params.Params, error) {
	return params.Params{}, errors.New("oops")
}

func TestUpdateErrors(t *testing.T) {
	s := newState(t)
	_, err := Update(s, UpdateStatus{Params: true}, Env{Params: failingStore{}})
	assert.Error(t, err)
	_, err = Update(s, UpdateStatus{Params: true}, Env{})
	assert.Error(t, err)
	_, err = Update(s, UpdateStatus{Params: true}, Env{Params: params.NewStaticStore(params.Params{TimeZone: "Nowhere/Special"})})
	assert.ErrorIs(t, err, params.ErrInvalidParams)
	_, err = New(params.Params{Type: "pie"})
	assert.ErrorIs(t, err, params.ErrInvalidParams)
}

func TestUpdateStatusString(t *testing.T) {
	assert.Equal(t, "none", UpdateStatus{}.String())
	assert.Equal(t, "params+data+resize", UpdateStatus{Resize: true, Data: true, Params: true}.String())
}
