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

// Binary calviz serves calendar heatmaps of the dataset files under a data
// root.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/ilhamster/calviz/params"
	"github.com/ilhamster/calviz/service"
)

var (
	port       = flag.Int("port", 7410, "Port to serve calviz clients on")
	dataRoot   = flag.String("data_root", ".", "The root path for charted dataset files")
	paramsPath = flag.String("params", "", "An optional YAML, JSON or TOML chart parameters file")
	cacheSize  = flag.Int("cache_size", 10, "The number of datasets to keep cached")
	logLevel   = flag.String("log_level", "info", "The minimum log level: debug, info, warn or error")
)

func newLogger(level string, w io.Writer) (*slog.Logger, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("bad log level '%s': %w", level, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l})), nil
}

func paramsStore(path string) params.Store {
	if path == "" {
		return params.NewStaticStore(params.Defaults())
	}
	return params.NewFileStore(path)
}

func main() {
	flag.Parse()

	logger, err := newLogger(*logLevel, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	slog.SetDefault(logger)

	store := paramsStore(*paramsPath)
	if _, err := store.Load(); err != nil {
		logger.Error("failed to load chart parameters", "path", *paramsPath, "error", err)
		os.Exit(1)
	}
	svc, err := service.New(*dataRoot, *cacheSize, store, logger)
	if err != nil {
		logger.Error("failed to create calviz service", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	svc.RegisterHandlers(mux)
	hostname, err := os.Hostname()
	if err != nil {
		logger.Error("failed to get hostname", "error", err)
		os.Exit(1)
	}

	// Provide OSC 8 (https://en.wikipedia.org/wiki/ANSI_escape_code#OSC) link for
	// compatible terminals.
	fmt.Printf("Serving calviz at \x1B]8;;http://%[1]s:%[2]d\x07http://%[1]s:%[2]d\x1B]8;;\x07\n", hostname, *port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), mux); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
