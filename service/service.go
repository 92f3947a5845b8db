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

// Package service wires the calendar heatmap data source, query dispatcher
// and HTTP handlers over a directory of dataset files.
package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	datasource "github.com/ilhamster/calviz/data_source"
	"github.com/ilhamster/calviz/dataset"
	"github.com/ilhamster/calviz/handlers"
	"github.com/ilhamster/calviz/params"
	querydispatcher "github.com/ilhamster/calviz/query_dispatcher"
)

// fileFetcher fetches datasets from JSON files under a root directory.  The
// collection 'a/b' is read from '<root>/a/b', or failing that
// '<root>/a/b.json'.
type fileFetcher struct {
	collectionRoot string
}

func (ff *fileFetcher) Fetch(ctx context.Context, collectionName string) (*dataset.Dataset, error) {
	// Cleaning against the root keeps lookups beneath collectionRoot.
	name := filepath.Join(ff.collectionRoot, filepath.Clean("/"+collectionName))
	file, err := os.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		file, err = os.Open(name + ".json")
	}
	if err != nil {
		return nil, fmt.Errorf("can't open collection '%s': %w", collectionName, err)
	}
	defer file.Close()
	ds, err := dataset.Decode(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("can't read collection '%s': %w", collectionName, err)
	}
	return ds, nil
}

// Service serves calendar heatmaps.
type Service struct {
	queryHandler handlers.QueryHandler
	logger       *slog.Logger
}

// New returns a Service charting the datasets under collectionRoot,
// caching up to cap of them, and configuring charts from store.  A nil logger
// selects slog.Default().
func New(collectionRoot string, cap int, store params.Store, logger *slog.Logger) (*Service, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ds, err := datasource.New(cap, &fileFetcher{collectionRoot: collectionRoot}, store, logger)
	if err != nil {
		return nil, err
	}
	qd, err := querydispatcher.New([]querydispatcher.DataSource{ds}, querydispatcher.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &Service{
		queryHandler: handlers.NewQueryHandler(qd, ds, logger),
		logger:       logger,
	}, nil
}

// RegisterHandlers registers the Service's handlers with mux.
func (s *Service) RegisterHandlers(mux *http.ServeMux) {
	for path, handler := range s.queryHandler.HandlersByPath() {
		s.logger.Debug("registering handler", "path", path)
		mux.HandleFunc(path, handler)
	}
}
