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

package querydispatcher

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ilhamster/calviz/util"
)

type testDataSource struct {
	supportedDataSeriesQueries []string
	mu                         sync.Mutex
	handledQueries             map[string]int
}

func newTestDataSource(supportedDataSeriesQueries ...string) *testDataSource {
	return &testDataSource{
		supportedDataSeriesQueries: supportedDataSeriesQueries,
		handledQueries:             map[string]int{},
	}
}

func (tds *testDataSource) SupportedDataSeriesQueries() []string {
	return tds.supportedDataSeriesQueries
}

const collectionNameKey = "collection_name"

func (tds *testDataSource) HandleDataSeriesRequests(ctx context.Context, globalFilters map[string]*util.V, drb *util.DataResponseBuilder, reqs []*util.DataSeriesRequest) error {
	collectionName, err := util.ExpectStringValue(globalFilters[collectionNameKey])
	if err != nil {
		return err
	}
	if collectionName == "error" {
		return errors.New("oops")
	}
	tds.mu.Lock()
	defer tds.mu.Unlock()
	for _, req := range reqs {
		drb.DataSeries(req).With(util.StringProperty("query", req.QueryName))
		tds.handledQueries[req.QueryName]++
	}
	return nil
}

func TestQueryDispatcherCreation(t *testing.T) {
	for _, test := range []struct {
		description string
		dataSources []DataSource
		wantQueries []string
		wantErr     bool
	}{{
		description: "single data source",
		dataSources: []DataSource{
			newTestDataSource("calendar.heatmap", "calendar.summary"),
		},
		wantQueries: []string{"calendar.heatmap", "calendar.summary"},
	}, {
		description: "multiple data sources",
		dataSources: []DataSource{
			newTestDataSource("calendar.heatmap"),
			newTestDataSource("commits.by_day"),
		},
		wantQueries: []string{"calendar.heatmap", "commits.by_day"},
	}, {
		description: "supported query conflict",
		dataSources: []DataSource{
			newTestDataSource("calendar.heatmap"),
			newTestDataSource("calendar.heatmap"),
		},
		wantErr: true,
	}} {
		t.Run(test.description, func(t *testing.T) {
			qd, err := New(test.dataSources)
			if test.wantErr != (err != nil) {
				t.Fatalf("New() yielded unexpected error %v", err)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(test.wantQueries, qd.SupportedQueries()); diff != "" {
				t.Errorf("SupportedQueries() diff (-want +got):\n%s", diff)
			}
		})
	}
}

func seriesReq(queryName, seriesName string) *util.DataSeriesRequest {
	return &util.DataSeriesRequest{
		QueryName:  queryName,
		SeriesName: seriesName,
		Options:    map[string]*util.V{},
	}
}

func TestHandleDataRequest(t *testing.T) {
	for _, test := range []struct {
		description        string
		dataSources        []*testDataSource
		collection         string
		reqs               []*util.DataSeriesRequest
		wantErr            bool
		wantSeries         []string
		wantHandledQueries []map[string]int
	}{{
		description: "single data source",
		dataSources: []*testDataSource{newTestDataSource("calendar.heatmap")},
		collection:  "commits",
		reqs:        []*util.DataSeriesRequest{seriesReq("calendar.heatmap", "1")},
		wantSeries:  []string{"1"},
		wantHandledQueries: []map[string]int{
			{"calendar.heatmap": 1},
		},
	}, {
		description: "multiple data sources",
		dataSources: []*testDataSource{
			newTestDataSource("calendar.heatmap"),
			newTestDataSource("commits.by_day"),
		},
		collection: "commits",
		reqs: []*util.DataSeriesRequest{
			seriesReq("calendar.heatmap", "1"),
			seriesReq("commits.by_day", "2"),
			seriesReq("calendar.heatmap", "3"),
		},
		wantSeries: []string{"1", "2", "3"},
		wantHandledQueries: []map[string]int{
			{"calendar.heatmap": 2},
			{"commits.by_day": 1},
		},
	}, {
		description: "data source failure",
		dataSources: []*testDataSource{newTestDataSource("calendar.heatmap")},
		collection:  "error",
		reqs:        []*util.DataSeriesRequest{seriesReq("calendar.heatmap", "1")},
		wantErr:     true,
	}, {
		description: "unknown query",
		dataSources: []*testDataSource{newTestDataSource("calendar.heatmap")},
		collection:  "commits",
		reqs:        []*util.DataSeriesRequest{seriesReq("calendar.pie", "1")},
		wantErr:     true,
	}} {
		t.Run(test.description, func(t *testing.T) {
			dss := make([]DataSource, len(test.dataSources))
			for idx, ds := range test.dataSources {
				dss[idx] = ds
			}
			qd, err := New(dss)
			if err != nil {
				t.Fatalf("New() yielded unexpected error %s", err)
			}
			gotData, err := qd.HandleDataRequest(context.Background(), &util.DataRequest{
				GlobalFilters: map[string]*util.V{
					collectionNameKey: util.StringValue(test.collection),
				},
				SeriesRequests: test.reqs,
			})
			if test.wantErr != (err != nil) {
				t.Fatalf("HandleDataRequest() yielded unexpected error %v", err)
			}
			if err != nil {
				return
			}
			gotSeries := []string{}
			for _, series := range gotData.DataSeries {
				gotSeries = append(gotSeries, series.SeriesName)
			}
			sort.Strings(gotSeries)
			if diff := cmp.Diff(test.wantSeries, gotSeries); diff != "" {
				t.Errorf("series diff (-want +got):\n%s", diff)
			}
			for idx, ds := range test.dataSources {
				if diff := cmp.Diff(test.wantHandledQueries[idx], ds.handledQueries); diff != "" {
					t.Errorf("data source %d handled queries diff (-want +got):\n%s", idx, diff)
				}
			}
		})
	}
}
