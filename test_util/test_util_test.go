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

package testutil

import (
	"testing"

	"github.com/ilhamster/calviz/util"
)

func TestUpdateComparator(t *testing.T) {
	for _, test := range []struct {
		description string
		comparator  *UpdateComparator
		different   bool
	}{{
		description: "equal",
		comparator: NewUpdateComparator().
			WithTestUpdates(util.StringProperty("mode", "year")).
			WithWantUpdates(util.StringProperty("mode", "year")),
	}, {
		description: "order independence",
		comparator: NewUpdateComparator().
			WithTestUpdates(
				util.StringProperty("mode", "month"),
				util.DoubleProperty("cell_size", 35),
			).
			WithWantUpdates(
				util.DoubleProperty("cell_size", 35),
				util.StringProperty("mode", "month"),
			),
	}, {
		description: "later definitions win",
		comparator: NewUpdateComparator().
			WithTestUpdates(
				util.IntegerProperty("month", 1),
				util.IntegerProperty("month", 2),
			).
			WithWantUpdates(util.IntegerProperty("month", 2)),
	}, {
		description: "different strings",
		comparator: NewUpdateComparator().
			WithTestUpdates(util.StringProperty("id", "day_2021-01-01")).
			WithWantUpdates(util.StringProperty("id", "day_2021-01-02")),
		different: true,
	}, {
		description: "different types",
		comparator: NewUpdateComparator().
			WithTestUpdates(util.IntegerProperty("x", 10)).
			WithWantUpdates(util.DoubleProperty("x", 10)),
		different: true,
	}} {
		t.Run(test.description, func(t *testing.T) {
			msg, different := test.comparator.Compare(t)
			if test.different != different {
				t.Errorf("Compare() yielded unexpected result %v (%s)", different, msg)
			}
		})
	}
}

func TestCompareResponses(t *testing.T) {
	err := CompareResponses(t,
		func(db util.DataBuilder) {
			db.With(util.StringProperty("mode", "year"))
			db.Child().With(util.IntegerProperty("n", 1))
			db.Child().With(util.IntegerProperty("n", 2))
		},
		func(db TestDataBuilder) {
			db.With(util.StringProperty("mode", "year")).
				Child().With(util.IntegerProperty("n", 1)).
				AndChild().With(util.IntegerProperty("n", 2))
		},
	)
	if err != nil {
		t.Fatalf("CompareResponses() yielded unexpected error %s", err)
	}
}
