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

// Package vis provides Visualization, the mount/update/unmount lifecycle of a
// single heatmap instance embedded in a host.
//
// A host mounts a Visualization onto a drawing Surface, then delivers update
// events.  Each update that produces a chart redraws the Surface and notifies
// the host via RenderComplete.  Unmounting releases the Surface.
package vis

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	chartgrid "github.com/ilhamster/calviz/chart_grid"
	"github.com/ilhamster/calviz/dataset"
	"github.com/ilhamster/calviz/heatmap"
	"github.com/ilhamster/calviz/params"
	visconfig "github.com/ilhamster/calviz/vis_config"
)

// ErrNotMounted is returned for operations on a Visualization that is not
// mounted.
var ErrNotMounted = errors.New("visualization is not mounted")

// Host is the application embedding a Visualization.
type Host interface {
	// RenderComplete is invoked once after each successful draw.
	RenderComplete()
}

// Surface is where a Visualization draws.  Each draw writes a complete SVG
// document.
type Surface interface {
	Write(p []byte) (int, error)
	// Release frees the surface.  It is called at most once.
	Release() error
}

// Options carries the host environment of an update.
type Options struct {
	From, To       time.Time
	ContainerWidth float64
}

type lifecycle int

const (
	created lifecycle = iota
	mounted
	unmounted
)

// Visualization is a single heatmap instance.  It is not safe for concurrent
// use.
type Visualization struct {
	host    Host
	store   params.Store
	state   visconfig.State
	surface Surface
	phase   lifecycle
	ds      *dataset.Dataset
	chart   *heatmap.Chart
}

// New returns a Visualization reporting to host and configured from store.
func New(host Host, store params.Store) (*Visualization, error) {
	p, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load params: %w", err)
	}
	state, err := visconfig.New(p)
	if err != nil {
		return nil, err
	}
	return &Visualization{
		host:  host,
		store: store,
		state: state,
	}, nil
}

// Mount attaches the Visualization to surface.
func (v *Visualization) Mount(surface Surface) error {
	switch v.phase {
	case mounted:
		return errors.New("visualization is already mounted")
	case unmounted:
		return ErrNotMounted
	}
	v.surface = surface
	v.phase = mounted
	return nil
}

// Update applies the update event flagged by status.  When status.Data is
// set, ds replaces the charted dataset.  If the resulting mode has a grid and
// a dataset is present, the chart is redrawn and the host notified; a failed
// update leaves the Visualization, and its Surface, unchanged.
func (v *Visualization) Update(status visconfig.UpdateStatus, opts Options, ds *dataset.Dataset) error {
	if v.phase != mounted {
		return ErrNotMounted
	}
	state, err := visconfig.Update(v.state, status, visconfig.Env{
		From:           opts.From,
		To:             opts.To,
		ContainerWidth: opts.ContainerWidth,
		Params:         v.store,
	})
	if err != nil {
		return err
	}
	charted := v.ds
	if status.Data {
		charted = ds
	}
	if charted == nil || (state.Mode != chartgrid.ModeYear && state.Mode != chartgrid.ModeMonth) {
		v.state, v.ds, v.chart = state, charted, nil
		return nil
	}
	chart, err := heatmap.Build(state, charted, nil, nil)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := chart.WriteSVG(&buf); err != nil {
		return err
	}
	if _, err := v.surface.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to draw: %w", err)
	}
	v.state, v.ds, v.chart = state, charted, chart
	if v.host != nil {
		v.host.RenderComplete()
	}
	return nil
}

// Unmount detaches the Visualization and releases its Surface.  Unmounting a
// Visualization that was never mounted, or is already unmounted, does
// nothing.
func (v *Visualization) Unmount() error {
	if v.phase != mounted {
		return nil
	}
	v.phase = unmounted
	surface := v.surface
	v.surface, v.chart, v.ds = nil, nil, nil
	return surface.Release()
}

// State returns the Visualization's current state.
func (v *Visualization) State() visconfig.State {
	return v.state
}

// Chart returns the most recently drawn chart, or nil if the current state
// has none.
func (v *Visualization) Chart() *heatmap.Chart {
	return v.chart
}
