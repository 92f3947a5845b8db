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

// Package util defines the structured response format calviz serves to
// browser clients, and the builders used to assemble it:
//
// DataResponseBuilder, which collects one DataSeries per requested query;
//
// {type}Value functions (type={String, Strings, Integer, Double, Timestamp})
// for constructing Values, and Expect{type}Value functions for reading them
// back out of requests with a type check;
//
// DataBuilder and PropertyUpdate, for assembling nested Datum trees.
package util

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

type valueType int

// Enumerated value types.  The numbering is part of the wire format.
const (
	unsetValue valueType = iota
	StringValueType
	StringIndexValueType
	StringsValueType
	StringIndicesValueType
	IntegerValueType
	DoubleValueType
	TimestampValueType
)

// V is a single typed value in a request or response.
type V struct {
	V any
	T valueType
}

// PrettyPrint returns the receiver, deterministically prettyprinted.  String
// indices are resolved through st.  Only for use in tests.
func (v *V) PrettyPrint(st []string) string {
	var ret string
	var err error
	switch v.T {
	case unsetValue:
		ret = "unset"
	case StringValueType:
		ret, err = ExpectStringValue(v)
		ret = "'" + ret + "'"
	case StringIndexValueType:
		var idx int64
		if idx, err = expectStringIndexValue(v); err == nil {
			ret = "'" + st[idx] + "'"
		}
	case StringsValueType:
		var strs []string
		strs, err = ExpectStringsValue(v)
		ret = "[ '" + strings.Join(strs, "', '") + "' ]"
	case StringIndicesValueType:
		var idxs []int64
		if idxs, err = expectStringIndicesValue(v); err == nil {
			strs := make([]string, len(idxs))
			for i, idx := range idxs {
				strs[i] = st[idx]
			}
			ret = "[ '" + strings.Join(strs, "', '") + "' ]"
		}
	case IntegerValueType:
		var i int64
		if i, err = ExpectIntegerValue(v); err == nil {
			ret = strconv.FormatInt(i, 10)
		}
	case DoubleValueType:
		var d float64
		if d, err = ExpectDoubleValue(v); err == nil {
			ret = fmt.Sprintf("%.6f", d)
		}
	case TimestampValueType:
		var ts time.Time
		if ts, err = ExpectTimestampValue(v); err == nil {
			ret = ts.UTC().Format(time.RFC3339Nano)
		}
	}
	if err != nil {
		return "error: " + err.Error()
	}
	return ret
}

// timestamp is the wire encoding of a time.Time: seconds and nanoseconds from
// the Unix epoch.
type timestamp struct {
	UnixSeconds int64
	UnixNanos   int64
}

func (ts timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int64{ts.UnixSeconds, ts.UnixNanos})
}

// MarshalJSON encodes a V as the two-element array [type, value].
func (v *V) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{v.T, v.V})
}

func asInt64(x any) (int64, error) {
	n, ok := x.(json.Number)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", x)
	}
	return n.Int64()
}

func (v *V) fromAny(got []any) error {
	if len(got) != 2 {
		return fmt.Errorf("value must have two elements, got %d", len(got))
	}
	t, err := asInt64(got[0])
	if err != nil {
		return err
	}
	v.T = valueType(t)
	raw := got[1]
	switch v.T {
	case StringValueType:
		s, ok := raw.(string)
		if !ok {
			return fmt.Errorf("string value is improperly formed")
		}
		v.V = s
	case StringIndexValueType, IntegerValueType:
		if v.V, err = asInt64(raw); err != nil {
			return err
		}
	case StringsValueType:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("strings value is improperly formed")
		}
		strs := make([]string, len(items))
		for i, item := range items {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("strings value contains a non-string")
			}
			if strs[i], err = url.QueryUnescape(s); err != nil {
				return err
			}
		}
		v.V = strs
	case StringIndicesValueType:
		items, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("string indices value is improperly formed")
		}
		idxs := make([]int64, len(items))
		for i, item := range items {
			if idxs[i], err = asInt64(item); err != nil {
				return err
			}
		}
		v.V = idxs
	case DoubleValueType:
		n, ok := raw.(json.Number)
		if !ok {
			return fmt.Errorf("double value is improperly formed")
		}
		if v.V, err = n.Float64(); err != nil {
			return err
		}
	case TimestampValueType:
		parts, ok := raw.([]any)
		if !ok || len(parts) != 2 {
			return fmt.Errorf("timestamp value is improperly formed")
		}
		secs, err := asInt64(parts[0])
		if err != nil {
			return err
		}
		nanos, err := asInt64(parts[1])
		if err != nil {
			return err
		}
		v.V = timestamp{UnixSeconds: secs, UnixNanos: nanos}
	default:
		v.V = raw
	}
	return nil
}

// UnmarshalJSON decodes the [type, value] encoding produced by MarshalJSON.
func (v *V) UnmarshalJSON(data []byte) error {
	var got []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&got); err != nil {
		return err
	}
	return v.fromAny(got)
}

// Datum is one node of a response tree: properties keyed by string-table
// index, and ordered children.
type Datum struct {
	Properties map[int64]*V
	Children   []*Datum
}

// PrettyPrint returns the receiver deterministically prettyprinted, with
// properties in alphabetical key order.  Only for use in tests.
func (d *Datum) PrettyPrint(indent string, st []string) string {
	ret := []string{}
	keys := make([]int64, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		return st[keys[a]] < st[keys[b]]
	})
	for _, k := range keys {
		ret = append(ret, fmt.Sprintf("%sProp '%s': %s", indent, st[k], d.Properties[k].PrettyPrint(st)))
	}
	for _, child := range d.Children {
		ret = append(ret, indent+"Child:", child.PrettyPrint(indent+"  ", st))
	}
	return strings.Join(ret, "\n")
}

// MarshalJSON encodes a Datum as [[[key, V]...], [Datum...]], with properties
// in increasing key order.
func (d *Datum) MarshalJSON() ([]byte, error) {
	keys := make([]int64, 0, len(d.Properties))
	for k := range d.Properties {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	props := make([]any, len(keys))
	for i, k := range keys {
		props[i] = []any{k, d.Properties[k]}
	}
	children := make([]any, len(d.Children))
	for i, child := range d.Children {
		children[i] = child
	}
	return json.Marshal([]any{props, children})
}

// DataSeriesRequest asks for a single named series from a query.
type DataSeriesRequest struct {
	QueryName  string
	SeriesName string
	Options    map[string]*V
}

// DataSeries is the response to one DataSeriesRequest.
type DataSeries struct {
	SeriesName string
	Root       *Datum
}

// PrettyPrint returns the receiver deterministically prettyprinted.
// Only for use in tests.
func (ds *DataSeries) PrettyPrint(indent string, st []string) string {
	return strings.Join([]string{
		fmt.Sprintf("%sSeries %s", indent, ds.SeriesName),
		indent + "  Root:",
		ds.Root.PrettyPrint(indent+"    ", st),
	}, "\n")
}

// DataRequest is a batch of DataSeriesRequests sharing global filters such as
// the active time range.
type DataRequest struct {
	GlobalFilters  map[string]*V
	SeriesRequests []*DataSeriesRequest
}

// DataRequestFromJSON decodes a DataRequest.
func DataRequestFromJSON(j []byte) (*DataRequest, error) {
	ret := &DataRequest{}
	if err := json.Unmarshal(j, ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Data is a complete response: a shared string table and the series.
type Data struct {
	StringTable []string
	DataSeries  []*DataSeries
}

// PrettyPrint returns the receiver deterministically prettyprinted.
// Only for use in tests.
func (d *Data) PrettyPrint() string {
	ret := []string{"Data:"}
	for _, series := range d.DataSeries {
		ret = append(ret, series.PrettyPrint("  ", d.StringTable))
	}
	return strings.Join(ret, "\n")
}

// stringTable interns strings to dense indices.  It is thread-safe.
type stringTable struct {
	mu      sync.RWMutex
	indices map[string]int64
	strs    []string
}

func newStringTable() *stringTable {
	return &stringTable{indices: map[string]int64{}}
}

func (st *stringTable) index(str string) int64 {
	st.mu.RLock()
	idx, ok := st.indices[str]
	st.mu.RUnlock()
	if ok {
		return idx
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	// Another writer may have interned str between the two locks.
	if idx, ok := st.indices[str]; ok {
		return idx
	}
	idx = int64(len(st.strs))
	st.strs = append(st.strs, str)
	st.indices[str] = idx
	return idx
}

func (st *stringTable) snapshot() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return append([]string{}, st.strs...)
}

// firstError records the first error raised while building a response.
type firstError struct {
	mu  sync.Mutex
	err error
}

func (fe *firstError) set(err error) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	if fe.err == nil {
		fe.err = err
	}
}

func (fe *firstError) get() error {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.err
}

// DataResponseBuilder assembles a Data response.  DataSeries may be called
// concurrently.
type DataResponseBuilder struct {
	st  *stringTable
	err *firstError
	mu  sync.Mutex
	d   *Data
}

// NewDataResponseBuilder returns an empty DataResponseBuilder.
func NewDataResponseBuilder() *DataResponseBuilder {
	return &DataResponseBuilder{
		st:  newStringTable(),
		err: &firstError{},
		d:   &Data{DataSeries: []*DataSeries{}},
	}
}

// DataBuilder is implemented by types that can assemble response Datums.
type DataBuilder interface {
	With(updates ...PropertyUpdate) DataBuilder
	Child() DataBuilder
}

// DataSeries starts a new series answering req and returns a builder for its
// root Datum.
func (drb *DataResponseBuilder) DataSeries(req *DataSeriesRequest) DataBuilder {
	ret := newDatumBuilder(drb.err, drb.st)
	drb.mu.Lock()
	drb.d.DataSeries = append(drb.d.DataSeries, &DataSeries{
		SeriesName: req.SeriesName,
		Root:       ret.d,
	})
	drb.mu.Unlock()
	return ret
}

// Data returns the completed response, or the first error raised while
// building it.
func (drb *DataResponseBuilder) Data() (*Data, error) {
	if err := drb.err.get(); err != nil {
		return nil, err
	}
	drb.d.StringTable = drb.st.snapshot()
	return drb.d, nil
}

// StringValue returns a Value wrapping str.
func StringValue(str string) *V {
	return &V{V: str, T: StringValueType}
}

func stringIndexValue(idx int64) *V {
	return &V{V: idx, T: StringIndexValueType}
}

// StringsValue returns a Value wrapping strs.
func StringsValue(strs ...string) *V {
	return &V{V: strs, T: StringsValueType}
}

func stringIndicesValue(idxs ...int64) *V {
	return &V{V: idxs, T: StringIndicesValueType}
}

// IntegerValue returns a Value wrapping i.
func IntegerValue(i int64) *V {
	return &V{V: i, T: IntegerValueType}
}

// DoubleValue returns a Value wrapping f.
func DoubleValue(f float64) *V {
	return &V{V: f, T: DoubleValueType}
}

// TimestampValue returns a Value wrapping t.
func TimestampValue(t time.Time) *V {
	return &V{
		V: timestamp{
			UnixSeconds: t.Unix(),
			UnixNanos:   int64(t.Nanosecond()),
		},
		T: TimestampValueType,
	}
}

// ExpectStringValue returns the string held by val, or an error if val holds
// something else.
func ExpectStringValue(val *V) (string, error) {
	if val.T != StringValueType {
		return "", fmt.Errorf("expected value type 'str'")
	}
	return url.QueryUnescape(val.V.(string))
}

func expectStringIndexValue(val *V) (int64, error) {
	if val.T != StringIndexValueType {
		return 0, fmt.Errorf("expected value type 'str_idx'")
	}
	return val.V.(int64), nil
}

// ExpectStringsValue returns the strings held by val, or an error if val
// holds something else.
func ExpectStringsValue(val *V) ([]string, error) {
	if val.T != StringsValueType {
		return nil, fmt.Errorf("expected value type 'strs'")
	}
	return val.V.([]string), nil
}

func expectStringIndicesValue(val *V) ([]int64, error) {
	if val.T != StringIndicesValueType {
		return nil, fmt.Errorf("expected value type 'str_idxs'")
	}
	return val.V.([]int64), nil
}

// ExpectIntegerValue returns the integer held by val, or an error if val
// holds something else.
func ExpectIntegerValue(val *V) (int64, error) {
	if val.T != IntegerValueType {
		return 0, fmt.Errorf("expected value type 'int'")
	}
	return val.V.(int64), nil
}

// ExpectDoubleValue returns the float held by val, or an error if val holds
// something else.
func ExpectDoubleValue(val *V) (float64, error) {
	if val.T != DoubleValueType {
		return 0, fmt.Errorf("expected value type 'dbl'")
	}
	return val.V.(float64), nil
}

// ExpectTimestampValue returns the timestamp held by val, or an error if val
// holds something else.
func ExpectTimestampValue(val *V) (time.Time, error) {
	if val.T != TimestampValueType {
		return time.Time{}, fmt.Errorf("expected value type 'timestamp'")
	}
	ts := val.V.(timestamp)
	return time.Unix(ts.UnixSeconds, ts.UnixNanos), nil
}

// PropertyUpdate mutates a Datum under construction.  A nil PropertyUpdate
// does nothing.
type PropertyUpdate func(db *datumBuilder) error

// EmptyUpdate is a PropertyUpdate that does nothing.
var EmptyUpdate PropertyUpdate = nil

// ErrorProperty fails the response under construction with err.
func ErrorProperty(err error) PropertyUpdate {
	return func(db *datumBuilder) error {
		return err
	}
}

type datumBuilder struct {
	err *firstError
	st  *stringTable
	d   *Datum
}

func newDatumBuilder(err *firstError, st *stringTable) *datumBuilder {
	return &datumBuilder{
		err: err,
		st:  st,
		d: &Datum{
			Properties: map[int64]*V{},
			Children:   []*Datum{},
		},
	}
}

// With applies updates in order, stopping at the first failure.  Once any
// update in the response has failed, With does nothing.
func (db *datumBuilder) With(updates ...PropertyUpdate) DataBuilder {
	if db.err.get() != nil {
		return db
	}
	for _, update := range updates {
		if update == nil {
			continue
		}
		if err := update(db); err != nil {
			db.err.set(err)
			break
		}
	}
	return db
}

func (db *datumBuilder) Child() DataBuilder {
	child := newDatumBuilder(db.err, db.st)
	db.d.Children = append(db.d.Children, child.d)
	return child
}

// set stores the Value produced by v under key.  The key is interned before
// anything v interns.
func (db *datumBuilder) set(key string, v func() *V) {
	k := db.st.index(key)
	db.d.Properties[k] = v()
}

// If applies du only when predicate holds.
func If(predicate bool, du PropertyUpdate) PropertyUpdate {
	if predicate {
		return du
	}
	return EmptyUpdate
}

// Chain applies the provided updates in order.
func Chain(updates ...PropertyUpdate) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.With(updates...)
		return nil
	}
}

// StringProperty sets key to the string value.  Strings are interned in the
// response string table.
func StringProperty(key, value string) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.set(key, func() *V { return stringIndexValue(db.st.index(value)) })
		return nil
	}
}

// StringsProperty sets key to the string slice values.
func StringsProperty(key string, values ...string) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.set(key, func() *V {
			idxs := make([]int64, len(values))
			for i, v := range values {
				idxs[i] = db.st.index(v)
			}
			return stringIndicesValue(idxs...)
		})
		return nil
	}
}

// IntegerProperty sets key to the integer value.
func IntegerProperty(key string, value int64) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.set(key, func() *V { return IntegerValue(value) })
		return nil
	}
}

// DoubleProperty sets key to the float value.
func DoubleProperty(key string, value float64) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.set(key, func() *V { return DoubleValue(value) })
		return nil
	}
}

// TimestampProperty sets key to the timestamp value.
func TimestampProperty(key string, value time.Time) PropertyUpdate {
	return func(db *datumBuilder) error {
		db.set(key, func() *V { return TimestampValue(value) })
		return nil
	}
}
