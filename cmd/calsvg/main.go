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

// Binary calsvg renders a dataset file as a calendar heatmap SVG.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"

	datasource "github.com/ilhamster/calviz/data_source"
	"github.com/ilhamster/calviz/dataset"
	"github.com/ilhamster/calviz/params"
	"github.com/spf13/cobra"
)

type options struct {
	dataPath   string
	paramsPath string
	from, to   string
	width      float64
	outputPath string
}

// fileDataset fetches the single dataset file at path, whatever collection is
// requested.
type fileDataset struct {
	path string
}

func (fd fileDataset) Fetch(ctx context.Context, collectionName string) (*dataset.Dataset, error) {
	file, err := os.Open(fd.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return dataset.Decode(bufio.NewReader(file))
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "calsvg --data dataset.json",
		Short: "Render a calendar heatmap as SVG",
		Long: `calsvg renders the first series of a dataset file as a year or month
calendar heatmap, chosen from the charted time range, and writes it as SVG.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dataPath, "data", "", "Dataset JSON file to render (required)")
	cmd.Flags().StringVar(&opts.paramsPath, "params", "", "Chart parameters file (YAML, JSON or TOML)")
	cmd.Flags().StringVar(&opts.from, "from", "", "Start of the charted range, as YYYY-MM-DD or RFC 3339 (default: first point)")
	cmd.Flags().StringVar(&opts.to, "to", "", "End of the charted range, as YYYY-MM-DD or RFC 3339 (default: last point)")
	cmd.Flags().Float64Var(&opts.width, "width", 1000, "Container width in pixels, which sizes the cells")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Output file path (default: stdout)")
	cmd.MarkFlagRequired("data")
	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	var store params.Store = params.NewStaticStore(params.Defaults())
	if opts.paramsPath != "" {
		store = params.NewFileStore(opts.paramsPath)
	}
	from, err := datasource.ParseTime(opts.from)
	if err != nil {
		return fmt.Errorf("invalid --from: %w", err)
	}
	to, err := datasource.ParseTime(opts.to)
	if err != nil {
		return fmt.Errorf("invalid --to: %w", err)
	}
	ds, err := datasource.New(1, fileDataset{path: opts.dataPath}, store, nil)
	if err != nil {
		return err
	}
	chart, err := ds.Chart(cmd.Context(), datasource.ChartRequest{
		CollectionName: opts.dataPath,
		Start:          from,
		End:            to,
		ContainerWidth: opts.width,
	})
	if err != nil {
		return fmt.Errorf("failed to build chart: %w", err)
	}
	out := cmd.OutOrStdout()
	if opts.outputPath != "" {
		file, err := os.Create(opts.outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer file.Close()
		out = file
	}
	if err := chart.WriteSVG(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
