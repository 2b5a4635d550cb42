// Copyright (C) 2024 Christian Rößner
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// Package configfx exposes the loaded configuration as versioned, immutable snapshots.
package configfx

import (
	"sync"
	"sync/atomic"

	"github.com/speedforceev/fleetstats/server/config"
	"github.com/speedforceev/fleetstats/server/errors"
)

// Snapshot is an immutable configuration view.
//
// Version starts at 1 and increases with every successful reload.
type Snapshot struct {
	Config  *config.Config
	Version uint64
}

// Provider provides the current config snapshot.
type Provider interface {
	Current() Snapshot
}

// Reloader extends Provider with a reload capability.
type Reloader interface {
	Provider

	Reload() (Snapshot, error)
}

// LoadFunc loads a fresh configuration.
type LoadFunc func() (*config.Config, error)

type provider struct {
	mu       sync.Mutex
	snapshot atomic.Pointer[Snapshot]
	load     LoadFunc
}

var _ Reloader = (*provider)(nil)

// NewProvider wraps an already loaded configuration. load is used by Reload.
func NewProvider(cfg *config.Config, load LoadFunc) (Reloader, error) {
	if cfg == nil {
		return nil, errors.ErrConfigNotLoaded
	}

	p := &provider{load: load}
	p.snapshot.Store(&Snapshot{Config: cfg, Version: 1})

	return p, nil
}

// NewFileProvider wraps cfg and reloads it with the same options it was loaded with.
func NewFileProvider(cfg *config.Config, opts config.LoadOptions) (Reloader, error) {
	return NewProvider(cfg, func() (*config.Config, error) {
		return config.Load(opts)
	})
}

func (p *provider) Current() Snapshot {
	if snap := p.snapshot.Load(); snap != nil {
		return *snap
	}

	return Snapshot{}
}

// Reload swaps in a freshly loaded configuration. On error the current snapshot stays.
func (p *provider) Reload() (Snapshot, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.load == nil {
		return p.Current(), errors.ErrConfigNotLoaded
	}

	cfg, err := p.load()
	if err != nil {
		return p.Current(), err
	}

	next := &Snapshot{Config: cfg, Version: p.Current().Version + 1}
	p.snapshot.Store(next)

	return *next, nil
}
