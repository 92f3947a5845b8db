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

package util

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestStringTable(t *testing.T) {
	for _, test := range []struct {
		description string
		additions   []string
		wantTable   []string
	}{{
		description: "unique additions",
		additions:   []string{"January", "February", "March"},
		wantTable:   []string{"January", "February", "March"},
	}, {
		description: "duplicate additions",
		additions:   []string{"Sun", "Mon", "Sun", "Sun", "Mon"},
		wantTable:   []string{"Sun", "Mon"},
	}} {
		t.Run(test.description, func(t *testing.T) {
			st := newStringTable()
			for _, str := range test.additions {
				st.index(str)
			}
			if diff := cmp.Diff(test.wantTable, st.snapshot()); diff != "" {
				t.Errorf("Got unexpected string table, diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseDataRequest(t *testing.T) {
	for _, test := range []struct {
		description string
		reqJSON     string
		wantReq     *DataRequest
		wantErr     bool
	}{{
		description: "series only",
		reqJSON: `{
			"SeriesRequests": [
				{"QueryName": "calendar.heatmap", "SeriesName": "1"}
			]
		}`,
		wantReq: &DataRequest{
			SeriesRequests: []*DataSeriesRequest{{
				QueryName:  "calendar.heatmap",
				SeriesName: "1",
			}},
		},
	}, {
		description: "with global filters and options",
		reqJSON: `{
			"GlobalFilters": {
				"collection_name": [1, "visits"],
				"start_timestamp": [7, [1609459200, 0]],
				"locales": [3, ["en-US", "de"]]
			},
			"SeriesRequests": [{
				"QueryName": "calendar.heatmap",
				"SeriesName": "1",
				"Options": {
					"container_width": [5, 1000],
					"ratio": [6, 1.5]
				}
			}]
		}`,
		wantReq: &DataRequest{
			GlobalFilters: map[string]*V{
				"collection_name": StringValue("visits"),
				"start_timestamp": TimestampValue(time.Unix(1609459200, 0)),
				"locales":         StringsValue("en-US", "de"),
			},
			SeriesRequests: []*DataSeriesRequest{{
				QueryName:  "calendar.heatmap",
				SeriesName: "1",
				Options: map[string]*V{
					"container_width": IntegerValue(1000),
					"ratio":           DoubleValue(1.5),
				},
			}},
		},
	}, {
		description: "malformed timestamp",
		reqJSON:     `{"GlobalFilters": {"ts": [7, [1]]}}`,
		wantErr:     true,
	}} {
		t.Run(test.description, func(t *testing.T) {
			req, err := DataRequestFromJSON([]byte(test.reqJSON))
			if (err != nil) != test.wantErr {
				t.Fatalf("DataRequestFromJSON() yielded unexpected error %v", err)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(test.wantReq, req); diff != "" {
				t.Errorf("Got unexpected DataRequest, diff (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDataResponseBuilding(t *testing.T) {
	when := time.Unix(100, 50)
	drb := NewDataResponseBuilder()
	root := drb.DataSeries(&DataSeriesRequest{SeriesName: "chart"})
	root.With(
		StringProperty("mode", "year"),
		DoubleProperty("cell_size", 15),
	)
	root.Child().With(
		StringProperty("id", "day_2021-01-05"),
		IntegerProperty("month", 1),
		TimestampProperty("date", when),
		StringsProperty("labels", "January", "year"),
	)
	data, err := drb.Data()
	if err != nil {
		t.Fatalf("Data() yielded unexpected error %s", err)
	}
	want := `Data:
  Series chart
    Root:
      Prop 'cell_size': 15.000000
      Prop 'mode': 'year'
      Child:
        Prop 'date': 1970-01-01T00:01:40.00000005Z
        Prop 'id': 'day_2021-01-05'
        Prop 'labels': [ 'January', 'year' ]
        Prop 'month': 1`
	if diff := cmp.Diff(want, data.PrettyPrint()); diff != "" {
		t.Errorf("Got unexpected response, diff (-want +got):\n%s", diff)
	}
	// Every string, key or value, is interned exactly once.
	if diff := cmp.Diff([]string{"mode", "year", "cell_size", "id", "day_2021-01-05", "month", "date", "labels", "January"}, data.StringTable); diff != "" {
		t.Errorf("Got unexpected string table, diff (-want +got):\n%s", diff)
	}
}

func TestResponseEncoding(t *testing.T) {
	drb := NewDataResponseBuilder()
	drb.DataSeries(&DataSeriesRequest{SeriesName: "s"}).With(
		IntegerProperty("n", 3),
	).Child().With(
		StringProperty("id", "day_x"),
	)
	data, err := drb.Data()
	if err != nil {
		t.Fatalf("Data() yielded unexpected error %s", err)
	}
	got, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("json.Marshal() yielded unexpected error %s", err)
	}
	want := `{"StringTable":["n","id","day_x"],"DataSeries":[{"SeriesName":"s","Root":[[[0,[5,3]]],[[[[1,[2,2]]],[]]]]}]}`
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Errorf("Got unexpected encoding, diff (-want +got):\n%s", diff)
	}
}

func TestErrorsFailTheResponse(t *testing.T) {
	drb := NewDataResponseBuilder()
	db := drb.DataSeries(&DataSeriesRequest{})
	db.With(
		StringProperty("before", "ok"),
		ErrorProperty(fmt.Errorf("oops")),
		StringProperty("after", "never"),
	)
	db.Child().With(StringProperty("ignored", "too"))
	if _, err := drb.Data(); err == nil || err.Error() != "oops" {
		t.Fatalf("Data() yielded error %v, want 'oops'", err)
	}
}

func TestExpectValues(t *testing.T) {
	when := time.Unix(1609459200, 0)
	if got, err := ExpectStringValue(StringValue("a%20b")); err != nil || got != "a b" {
		t.Errorf("ExpectStringValue() = %q, %v; want 'a b', nil", got, err)
	}
	if got, err := ExpectIntegerValue(IntegerValue(7)); err != nil || got != 7 {
		t.Errorf("ExpectIntegerValue() = %d, %v; want 7, nil", got, err)
	}
	if got, err := ExpectDoubleValue(DoubleValue(2.5)); err != nil || got != 2.5 {
		t.Errorf("ExpectDoubleValue() = %f, %v; want 2.5, nil", got, err)
	}
	if got, err := ExpectTimestampValue(TimestampValue(when)); err != nil || !got.Equal(when) {
		t.Errorf("ExpectTimestampValue() = %v, %v; want %v, nil", got, err, when)
	}
	if got, err := ExpectStringsValue(StringsValue("a", "b")); err != nil || len(got) != 2 {
		t.Errorf("ExpectStringsValue() = %v, %v; want [a b], nil", got, err)
	}
	for _, mismatch := range []func() error{
		func() error { _, err := ExpectStringValue(IntegerValue(1)); return err },
		func() error { _, err := ExpectIntegerValue(StringValue("1")); return err },
		func() error { _, err := ExpectDoubleValue(IntegerValue(1)); return err },
		func() error { _, err := ExpectTimestampValue(DoubleValue(1)); return err },
		func() error { _, err := ExpectStringsValue(StringValue("a")); return err },
	} {
		if mismatch() == nil {
			t.Errorf("expected a type mismatch error")
		}
	}
}
