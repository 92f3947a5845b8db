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

// Package querydispatcher provides QueryDispatcher, which routes the series
// requests of a DataRequest to the data sources answering them.
package querydispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ilhamster/calviz/util"
	"golang.org/x/sync/errgroup"
)

// DataSource answers data series queries.  Implementations must support
// concurrent HandleDataSeriesRequests calls.
type DataSource interface {
	// SupportedDataSeriesQueries returns the DataSeriesRequest.QueryNames the
	// DataSource handles.  Query names must be unique across the data sources
	// of a QueryDispatcher, so they are conventionally prefixed with the
	// source's domain, e.g. 'calendar.heatmap'.
	SupportedDataSeriesQueries() []string
	// HandleDataSeriesRequests answers reqs under the provided global
	// filters, adding one series per request to drb.  A returned error fails
	// the entire DataRequest.
	HandleDataSeriesRequests(ctx context.Context, globalFilters map[string]*util.V, drb *util.DataResponseBuilder, reqs []*util.DataSeriesRequest) error
}

// QueryDispatcher multiplexes a set of DataSources.
type QueryDispatcher struct {
	dataSources []DataSource
	// Maps query names to the index, in dataSources, of their handler.
	handlers map[string]int
	logger   *slog.Logger
}

// Option configures a QueryDispatcher.
type Option func(qd *QueryDispatcher)

// WithLogger directs the QueryDispatcher's logging to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(qd *QueryDispatcher) {
		qd.logger = logger
	}
}

// New returns a QueryDispatcher over the provided DataSources.  It fails if
// two DataSources support the same query.
func New(dss []DataSource, opts ...Option) (*QueryDispatcher, error) {
	qd := &QueryDispatcher{
		handlers: map[string]int{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(qd)
	}
	for dsIdx, ds := range dss {
		qd.dataSources = append(qd.dataSources, ds)
		for _, queryName := range ds.SupportedDataSeriesQueries() {
			if _, ok := qd.handlers[queryName]; ok {
				return nil, fmt.Errorf("multiple data sources handle query '%s'", queryName)
			}
			qd.handlers[queryName] = dsIdx
		}
	}
	return qd, nil
}

// SupportedQueries returns every query name the receiver dispatches, sorted.
func (qd *QueryDispatcher) SupportedQueries() []string {
	ret := make([]string, 0, len(qd.handlers))
	for queryName := range qd.handlers {
		ret = append(ret, queryName)
	}
	sort.Strings(ret)
	return ret
}

// HandleDataRequest groups req's series requests by DataSource, has each
// DataSource handle its group concurrently, and assembles the results into a
// single Data response.
func (qd *QueryDispatcher) HandleDataRequest(ctx context.Context, req *util.DataRequest) (*util.Data, error) {
	start := time.Now()
	drb := util.NewDataResponseBuilder()
	groupedReqs := map[int][]*util.DataSeriesRequest{}
	for _, seriesReq := range req.SeriesRequests {
		dsIdx, ok := qd.handlers[seriesReq.QueryName]
		if !ok {
			return nil, fmt.Errorf("unsupported data query '%s'", seriesReq.QueryName)
		}
		groupedReqs[dsIdx] = append(groupedReqs[dsIdx], seriesReq)
	}
	errg, ctx := errgroup.WithContext(ctx)
	for dsIdx, seriesReqs := range groupedReqs {
		ds := qd.dataSources[dsIdx]
		seriesReqs := seriesReqs
		errg.Go(func() error {
			return ds.HandleDataSeriesRequests(ctx, req.GlobalFilters, drb, seriesReqs)
		})
	}
	if err := errg.Wait(); err != nil {
		qd.logger.Error("data request failed", "series", len(req.SeriesRequests), "error", err)
		return nil, err
	}
	qd.logger.Debug("handled data request",
		slog.Int("series", len(req.SeriesRequests)),
		slog.Int("sources", len(groupedReqs)),
		slog.Duration("elapsed", time.Since(start)))
	return drb.Data()
}
