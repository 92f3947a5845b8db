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

// Package testutil provides helpers for testing calviz response
// construction: comparing PropertyUpdates, and comparing whole responses
// built by the code under test against explicitly-built expectations.
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ilhamster/calviz/util"
)

// UpdateComparator checks that a set of PropertyUpdates-under-test yields
// the same Datum as a wanted set.
type UpdateComparator struct {
	got, want []util.PropertyUpdate
}

// NewUpdateComparator returns an empty UpdateComparator.
func NewUpdateComparator() *UpdateComparator {
	return &UpdateComparator{}
}

// WithTestUpdates sets the updates under test.
func (uc *UpdateComparator) WithTestUpdates(got ...util.PropertyUpdate) *UpdateComparator {
	uc.got = got
	return uc
}

// WithWantUpdates sets the expected updates.
func (uc *UpdateComparator) WithWantUpdates(want ...util.PropertyUpdate) *UpdateComparator {
	uc.want = want
	return uc
}

// Compare applies both sets of updates to sibling Datums and returns a diff
// message and true if they differ.  Repeated-field order matters;
// string-table order does not.
func (uc *UpdateComparator) Compare(t *testing.T) (string, bool) {
	t.Helper()
	drb := util.NewDataResponseBuilder()
	series := drb.DataSeries(&util.DataSeriesRequest{})
	series.Child().With(uc.got...)
	series.Child().With(uc.want...)
	data, err := drb.Data()
	if err != nil {
		t.Fatalf("failed to build comparison response: %s", err)
	}
	children := data.DataSeries[0].Root.Children
	if diff := cmp.Diff(
		children[1].PrettyPrint("", data.StringTable),
		children[0].PrettyPrint("", data.StringTable),
	); diff != "" {
		return fmt.Sprintf("diff (-want +got):\n%s", diff), true
	}
	return "", false
}

// TestDataBuilder fluently assembles expected responses in tests.
type TestDataBuilder interface {
	With(updates ...util.PropertyUpdate) TestDataBuilder
	Child() TestDataBuilder
	AndChild() TestDataBuilder
	Parent() TestDataBuilder
}

type testDataBuilder struct {
	db     util.DataBuilder
	parent *testDataBuilder
}

func (tdb *testDataBuilder) With(updates ...util.PropertyUpdate) TestDataBuilder {
	tdb.db.With(updates...)
	return tdb
}

func (tdb *testDataBuilder) Child() TestDataBuilder {
	return &testDataBuilder{
		db:     tdb.db.Child(),
		parent: tdb,
	}
}

// AndChild adds a sibling of the receiver, or a child if the receiver is the
// root.
func (tdb *testDataBuilder) AndChild() TestDataBuilder {
	if tdb.parent == nil {
		return tdb.Child()
	}
	return tdb.parent.Child()
}

// Parent returns the receiver's parent, or the receiver if it is the root.
func (tdb *testDataBuilder) Parent() TestDataBuilder {
	if tdb.parent == nil {
		return tdb
	}
	return tdb.parent
}

// CompareResponses builds a 'got' response and a 'want' response, each from
// a callback accepting either a util.DataBuilder or a TestDataBuilder, and
// reports any difference through t.  It returns an error if either response
// failed to build.
func CompareResponses(t *testing.T, buildGot, buildWant any) error {
	t.Helper()
	build := func(which string, fn any) (*util.Data, error) {
		drb := util.NewDataResponseBuilder()
		db := drb.DataSeries(&util.DataSeriesRequest{})
		switch f := fn.(type) {
		case func(util.DataBuilder):
			f(db)
		case func(TestDataBuilder):
			f(&testDataBuilder{db: db})
		default:
			t.Fatalf("%s builder must be func(util.DataBuilder) or func(testutil.TestDataBuilder), got %T", which, fn)
		}
		return drb.Data()
	}
	got, err := build("got", buildGot)
	if err != nil {
		return err
	}
	want, err := build("want", buildWant)
	if err != nil {
		return err
	}
	if diff := cmp.Diff(want.PrettyPrint(), got.PrettyPrint()); diff != "" {
		t.Errorf("Got data %s, diff (-want +got):\n%s", got.PrettyPrint(), diff)
	}
	return nil
}
