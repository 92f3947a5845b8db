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

// Package handlers provides the HTTP handlers serving calendar heatmaps.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	datasource "github.com/ilhamster/calviz/data_source"
	"github.com/ilhamster/calviz/heatmap"
	querydispatcher "github.com/ilhamster/calviz/query_dispatcher"
	"github.com/ilhamster/calviz/util"
)

// HandlerFunc is a HTTP handler function.
type HandlerFunc func(http.ResponseWriter, *http.Request)

// WrapFunc is a function that rewrites a HandlerFunc.
type WrapFunc func(HandlerFunc) HandlerFunc

// Handler describes a set of HTTP handlers.
type Handler interface {
	HandlersByPath() map[string]func(http.ResponseWriter, *http.Request)
}

// QueryHandler is a Handler for data queries.  It supports a Wrap method that
// wraps all handlers, e.g. adding cookies.
type QueryHandler interface {
	Handler
	Wrap(...WrapFunc) Handler
}

// ChartSource assembles heatmaps for SVG rendering.
type ChartSource interface {
	Chart(ctx context.Context, req datasource.ChartRequest) (*heatmap.Chart, error)
}

const (
	dataMethod = "/GetData"
	svgMethod  = "/GetSVG"
)

// SVG query parameters.
const (
	collectionParam = "collection"
	startParam      = "start"
	endParam        = "end"
	widthParam      = "width"
	localeParam     = "locale"
)

type contextKey string

var (
	httpReqKey contextKey = "calviz_http_req"
)

// RequestOf returns the http Request attached to the provided Context, or nil
// if no Request is attached.  Returns an error if something other than a
// Request is stored in the Context.
func RequestOf(ctx context.Context) (*http.Request, error) {
	reqIf := ctx.Value(httpReqKey)
	if reqIf == nil {
		return nil, nil
	}
	req, ok := reqIf.(*http.Request)
	if !ok {
		return nil, fmt.Errorf("expected *http.Request to be stored in context, but got something else")
	}
	return req, nil
}

// queryHandler is an http.Handler serving data and SVG queries.
type queryHandler struct {
	qd       *querydispatcher.QueryDispatcher
	charts   ChartSource
	logger   *slog.Logger
	wrappers []WrapFunc
}

// NewQueryHandler returns a new Handler serving data requests using the
// provided QueryDispatcher, and SVG requests using charts.  A nil logger
// selects slog.Default().
func NewQueryHandler(qd *querydispatcher.QueryDispatcher, charts ChartSource, logger *slog.Logger) QueryHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &queryHandler{
		qd:     qd,
		charts: charts,
		logger: logger,
	}
}

func (qh *queryHandler) Wrap(wrappers ...WrapFunc) Handler {
	qh.wrappers = append(qh.wrappers, wrappers...)
	return qh
}

// HandlersByPath returns a mapping of HTTP request path to HTTP handler for
// this Handler.
func (qh *queryHandler) HandlersByPath() map[string]func(http.ResponseWriter, *http.Request) {
	ret := map[string]func(http.ResponseWriter, *http.Request){}
	for path, h := range map[string]HandlerFunc{
		dataMethod: qh.getDataHandler,
		svgMethod:  qh.getSVGHandler,
	} {
		for _, wrapper := range qh.wrappers {
			h = wrapper(h)
		}
		ret[path] = h
	}
	return ret
}

func (qh *queryHandler) fail(w http.ResponseWriter, req *http.Request, msg string, err error, code int) {
	qh.logger.Error(msg, "path", req.URL.Path, "error", err)
	http.Error(w, msg+": "+err.Error(), code)
}

func (qh *queryHandler) getDataHandler(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseForm(); err != nil {
		qh.fail(w, req, "Failed to parse form", err, http.StatusBadRequest)
		return
	}
	dataReq, err := util.DataRequestFromJSON([]byte(req.Form.Get("req")))
	if err != nil {
		qh.fail(w, req, "Failed to parse DataRequest", err, http.StatusBadRequest)
		return
	}
	resp, err := qh.qd.HandleDataRequest(context.WithValue(req.Context(), httpReqKey, req), dataReq)
	if err != nil {
		qh.fail(w, req, "DataRequest failed", err, http.StatusInternalServerError)
		return
	}
	respStr, err := json.Marshal(resp)
	if err != nil {
		qh.fail(w, req, "Failed to marshal response", err, http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "application/json")
	w.Write(respStr)
}

func chartRequest(req *http.Request) (datasource.ChartRequest, error) {
	q := req.URL.Query()
	ret := datasource.ChartRequest{
		CollectionName: q.Get(collectionParam),
		Locale:         q.Get(localeParam),
	}
	if ret.CollectionName == "" {
		return ret, fmt.Errorf("missing required parameter '%s'", collectionParam)
	}
	var err error
	if ret.Start, err = datasource.ParseTime(q.Get(startParam)); err != nil {
		return ret, fmt.Errorf("parameter '%s': %w", startParam, err)
	}
	if ret.End, err = datasource.ParseTime(q.Get(endParam)); err != nil {
		return ret, fmt.Errorf("parameter '%s': %w", endParam, err)
	}
	if width := q.Get(widthParam); width != "" {
		if ret.ContainerWidth, err = strconv.ParseFloat(width, 64); err != nil {
			return ret, fmt.Errorf("parameter '%s': %w", widthParam, err)
		}
	}
	if locale := req.Header.Get("Accept-Language"); ret.Locale == "" && locale != "" {
		ret.Locale = locale
	}
	return ret, nil
}

func (qh *queryHandler) getSVGHandler(w http.ResponseWriter, req *http.Request) {
	cr, err := chartRequest(req)
	if err != nil {
		qh.fail(w, req, "Bad SVG request", err, http.StatusBadRequest)
		return
	}
	chart, err := qh.charts.Chart(context.WithValue(req.Context(), httpReqKey, req), cr)
	if err != nil {
		qh.fail(w, req, "Failed to build chart", err, http.StatusInternalServerError)
		return
	}
	var buf bytes.Buffer
	if err := chart.WriteSVG(&buf); err != nil {
		qh.fail(w, req, "Failed to render chart", err, http.StatusInternalServerError)
		return
	}
	w.Header().Add("Content-Type", "image/svg+xml")
	w.Write(buf.Bytes())
}
