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

// Package datasource provides a data source serving calendar heatmaps of
// named dataset collections.
package datasource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/simplelru"
	chartgrid "github.com/ilhamster/calviz/chart_grid"
	"github.com/ilhamster/calviz/dataset"
	"github.com/ilhamster/calviz/heatmap"
	"github.com/ilhamster/calviz/params"
	"github.com/ilhamster/calviz/util"
	visconfig "github.com/ilhamster/calviz/vis_config"
)

const (
	// HeatmapQuery is the query name of the structured heatmap chart.
	HeatmapQuery = "calendar.heatmap"

	collectionNameKey = "collection_name"
	startTimestampKey = "start_timestamp"
	endTimestampKey   = "end_timestamp"

	containerWidthKey = "container_width"
	localeKey         = "locale"
)

// DatasetFetcher describes types capable of fetching datasets by collection
// name.
type DatasetFetcher interface {
	// Fetch fetches the dataset specified by collectionName, returning an
	// error if a failure is encountered.
	Fetch(ctx context.Context, collectionName string) (*dataset.Dataset, error)
}

// ChartRequest specifies one heatmap.
type ChartRequest struct {
	CollectionName string
	// The time range to chart.  Zero bounds are filled from the first and
	// last points of the collection's first series.
	Start, End     time.Time
	ContainerWidth float64
	// If nonempty, Locale overrides the configured locale.
	Locale string
}

// DataSource implements querydispatcher.DataSource for calendar datasets.  It
// caches the most recently used datasets.
type DataSource struct {
	mu sync.Mutex
	// An LRU cache holding the most recently accessed datasets.  simplelru is
	// not safe for concurrent use, so it is guarded by mu.
	lru     *simplelru.LRU
	fetcher DatasetFetcher
	params  params.Store
	logger  *slog.Logger
}

// New returns a new DataSource with the specified cache capacity, fetching
// uncached datasets with fetcher and configuring charts from store.  A nil
// logger selects slog.Default().
func New(cap int, fetcher DatasetFetcher, store params.Store, logger *slog.Logger) (*DataSource, error) {
	lru, err := simplelru.NewLRU(cap, nil /* no onEvict policy */)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DataSource{
		lru:     lru,
		fetcher: fetcher,
		params:  store,
		logger:  logger,
	}, nil
}

// SupportedDataSeriesQueries returns the DataSeriesRequest query names
// supported by DataSource.
func (ds *DataSource) SupportedDataSeriesQueries() []string {
	return []string{HeatmapQuery}
}

// fetchDataset returns the specified dataset from the LRU if it's present
// there.  If it isn't, it is fetched and added to the LRU before being
// returned.
func (ds *DataSource) fetchDataset(ctx context.Context, collectionName string) (*dataset.Dataset, error) {
	ds.mu.Lock()
	cached, ok := ds.lru.Get(collectionName)
	ds.mu.Unlock()
	if ok {
		data, ok := cached.(*dataset.Dataset)
		if !ok {
			return nil, fmt.Errorf("cached collection '%s' wasn't a dataset", collectionName)
		}
		return data, nil
	}
	ds.logger.Debug("dataset cache miss", "collection", collectionName)
	data, err := ds.fetcher.Fetch(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	if err := data.Calendar(); err != nil {
		return nil, fmt.Errorf("collection '%s': %w", collectionName, err)
	}
	ds.mu.Lock()
	ds.lru.Add(collectionName, data)
	ds.mu.Unlock()
	return data, nil
}

// window returns a copy of data holding only the points within [start, end],
// along with the bounds it spans.  A zero start or end leaves that side
// unbounded, and is filled from the first series.
func window(data *dataset.Dataset, start, end time.Time) (*dataset.Dataset, time.Time, time.Time, error) {
	ret := &dataset.Dataset{Shape: data.Shape}
	for _, s := range data.Series {
		windowed := &dataset.Series{Label: s.Label}
		for _, p := range s.Points {
			if (!start.IsZero() && p.X.Before(start)) || (!end.IsZero() && p.X.After(end)) {
				continue
			}
			windowed.Points = append(windowed.Points, p)
		}
		ret.Series = append(ret.Series, windowed)
	}
	first, err := ret.FirstSeries()
	if err != nil {
		return nil, start, end, err
	}
	if start.IsZero() {
		p, _ := first.First()
		start = p.X
	}
	if end.IsZero() {
		p, _ := first.Last()
		end = p.X
	}
	return ret, start, end, nil
}

// Chart assembles the heatmap specified by req.
func (ds *DataSource) Chart(ctx context.Context, req ChartRequest) (*heatmap.Chart, error) {
	data, err := ds.fetchDataset(ctx, req.CollectionName)
	if err != nil {
		return nil, err
	}
	p, err := ds.params.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load params: %w", err)
	}
	if req.Locale != "" {
		p.Locale = req.Locale
	}
	state, err := visconfig.New(p)
	if err != nil {
		return nil, err
	}
	windowed, start, end, err := window(data, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("collection '%s': %w", req.CollectionName, err)
	}
	state, err = visconfig.Update(state, visconfig.UpdateStatus{Data: true}, visconfig.Env{
		From:           start,
		To:             end,
		ContainerWidth: req.ContainerWidth,
	})
	if err != nil {
		return nil, err
	}
	return heatmap.Build(state, windowed, nil, nil)
}

// ParseTime parses an RFC 3339 timestamp or a YYYY-MM-DD date, as accepted
// for chart bounds.  Empty strings yield the zero time.
func ParseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(chartgrid.DayFormat, s)
}

func expectNumber(v *util.V) (float64, error) {
	if f, err := util.ExpectDoubleValue(v); err == nil {
		return f, nil
	}
	i, err := util.ExpectIntegerValue(v)
	if err != nil {
		return 0, fmt.Errorf("expected a number")
	}
	return float64(i), nil
}

// chartRequest assembles the ChartRequest for the provided global filters and
// series options.
func chartRequest(globalFilters, options map[string]*util.V) (ChartRequest, error) {
	var ret ChartRequest
	var err error
	collectionNameVal, ok := globalFilters[collectionNameKey]
	if !ok {
		return ret, fmt.Errorf("missing required filter option '%s'", collectionNameKey)
	}
	if ret.CollectionName, err = util.ExpectStringValue(collectionNameVal); err != nil {
		return ret, fmt.Errorf("required filter option '%s' must be a string", collectionNameKey)
	}
	if tsv, ok := globalFilters[startTimestampKey]; ok {
		if ret.Start, err = util.ExpectTimestampValue(tsv); err != nil {
			return ret, fmt.Errorf("filter option '%s': %w", startTimestampKey, err)
		}
	}
	if tsv, ok := globalFilters[endTimestampKey]; ok {
		if ret.End, err = util.ExpectTimestampValue(tsv); err != nil {
			return ret, fmt.Errorf("filter option '%s': %w", endTimestampKey, err)
		}
	}
	if wv, ok := options[containerWidthKey]; ok {
		if ret.ContainerWidth, err = expectNumber(wv); err != nil {
			return ret, fmt.Errorf("option '%s': %w", containerWidthKey, err)
		}
	}
	if lv, ok := options[localeKey]; ok {
		if ret.Locale, err = util.ExpectStringValue(lv); err != nil {
			return ret, fmt.Errorf("option '%s' must be a string", localeKey)
		}
	}
	return ret, nil
}

// HandleDataSeriesRequests handles the provided set of DataSeriesRequests,
// with the provided global filters.  It assembles its responses in the
// provided DataResponseBuilder.
func (ds *DataSource) HandleDataSeriesRequests(ctx context.Context, globalFilters map[string]*util.V, drb *util.DataResponseBuilder, reqs []*util.DataSeriesRequest) error {
	start := time.Now()
	defer func() {
		ds.logger.Info("handled calendar queries",
			slog.Int("series", len(reqs)),
			slog.Duration("elapsed", time.Since(start)))
	}()
	for _, req := range reqs {
		if req.QueryName != HeatmapQuery {
			return fmt.Errorf("unsupported data query '%s'", req.QueryName)
		}
		cr, err := chartRequest(globalFilters, req.Options)
		if err != nil {
			return fmt.Errorf("error handling data query %s: %w", req.QueryName, err)
		}
		chart, err := ds.Chart(ctx, cr)
		if err != nil {
			return fmt.Errorf("error handling data query %s: %w", req.QueryName, err)
		}
		chart.Define(drb.DataSeries(req))
	}
	return nil
}
