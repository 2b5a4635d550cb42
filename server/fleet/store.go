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

package fleet

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/speedforceev/fleetstats/server/definitions"
	"github.com/speedforceev/fleetstats/server/errors"
	"github.com/speedforceev/fleetstats/server/log/level"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type pass uint8

const (
	passTick pass = iota
	passInitialize
)

// TickResult describes one applied mutation pass.
type TickResult struct {
	Generation uint64
	Collection *Collection

	// Increments holds the step applied to every IncrementingRandom metric.
	// It is empty for the initialization pass.
	Increments map[string]int64

	Initial bool
}

// Increment returns the step applied to label in this pass.
func (r TickResult) Increment(label string) (int64, bool) {
	inc, ok := r.Increments[label]

	return inc, ok
}

// Observer is notified after every applied pass, in pass order.
type Observer func(TickResult)

// Store owns the canonical fleet stats.
//
// Readers get the latest collection with a single atomic load. Mutation passes
// are serialized and publish a completely built collection with one atomic store.
type Store struct {
	mu      sync.Mutex
	current atomic.Pointer[Collection]

	rnd       Rand
	logger    *slog.Logger
	now       func() time.Time
	observers []Observer
	printer   *message.Printer

	initialized bool
}

// Option configures a Store.
type Option func(*Store)

// WithRand sets the random source. The default is the math/rand/v2 global source.
func WithRand(r Rand) Option {
	return func(s *Store) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithLogger sets the logger for the per-pass summary line.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver registers a callback run after every applied pass.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// NewStore creates a Store serving seed until the first pass.
func NewStore(seed *Collection, opts ...Option) (*Store, error) {
	if seed == nil {
		return nil, errors.ErrNoSnapshot
	}

	s := &Store{
		rnd:     globalRand{},
		logger:  slog.Default(),
		now:     time.Now,
		printer: message.NewPrinter(language.MustParse("en-IN")),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.current.Store(seed)

	return s, nil
}

// Snapshot returns the latest published collection. It never blocks.
func (s *Store) Snapshot() *Collection {
	return s.current.Load()
}

// Tick applies one mutation pass to every metric.
//
// On error nothing is published and the previous collection stays current.
func (s *Store) Tick() (TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.apply(passTick)
}

// InitializeOnce redraws the BoundedRandom metrics and leaves every other metric at its seed.
//
// Only the first successful call applies a pass; later calls return false.
func (s *Store) InitializeOnce() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return false, nil
	}

	if _, err := s.apply(passInitialize); err != nil {
		return false, err
	}

	s.initialized = true

	return true, nil
}

func (s *Store) apply(p pass) (TickResult, error) {
	cur := s.current.Load()

	metrics, increments, err := s.mutate(cur, p)
	if err != nil {
		return TickResult{}, err
	}

	next := cur.derive(metrics, s.now().UTC())

	s.current.Store(next)

	result := TickResult{
		Generation: next.Generation(),
		Collection: next,
		Increments: increments,
		Initial:    p == passInitialize,
	}

	s.logPass(result)

	for _, o := range s.observers {
		o(result)
	}

	return result, nil
}

// mutate builds the next metric slice without touching cur.
func (s *Store) mutate(cur *Collection, p pass) ([]Metric, map[string]int64, error) {
	metrics := cur.Metrics()
	increments := make(map[string]int64)

	for i := range metrics {
		m := &metrics[i]

		switch policy := m.Policy.(type) {
		case Static:
		case BoundedRandom:
			m.Value = drawInclusive(s.rnd, policy.Min, policy.Max)
		case IncrementingRandom:
			if p == passInitialize {
				continue
			}

			inc := drawInclusive(s.rnd, policy.MinStep, policy.MaxStep)
			if m.Value > math.MaxInt64-inc {
				return nil, nil, fmt.Errorf("%w: %s", errors.ErrValueOverflow, m.Label)
			}

			m.Value += inc
			increments[m.Label] = inc
		default:
			return nil, nil, fmt.Errorf("%w: %s (%T)", errors.ErrUnknownPolicy, m.Label, m.Policy)
		}
	}

	return metrics, increments, nil
}

func (s *Store) logPass(result TickResult) {
	msg := "Fleet stats updated"
	if result.Initial {
		msg = "Fleet stats initialized"
	}

	keyvals := []any{
		definitions.LogKeyMsg, msg,
		definitions.LogKeyGeneration, result.Generation,
		"summary", s.Summary(result),
	}

	for _, m := range result.Collection.metrics {
		key := LogKey(m.Label)
		keyvals = append(keyvals, key, m.Value)

		if inc, ok := result.Increments[m.Label]; ok {
			keyvals = append(keyvals, key+definitions.LogKeyIncrementSfx, inc)
		}
	}

	level.Info(s.logger).Log(keyvals...)
}

// Summary renders a pass the way operators read it, e.g.
// "Active: 3120, Kilometers: 70,00,180 (+180)". Static metrics are omitted.
func (s *Store) Summary(result TickResult) string {
	parts := make([]string, 0, result.Collection.Len())

	for _, m := range result.Collection.metrics {
		switch m.Policy.(type) {
		case BoundedRandom:
			parts = append(parts, fmt.Sprintf("%s: %d", m.Label, m.Value))
		case IncrementingRandom:
			part := m.Label + ": " + s.printer.Sprintf("%d", m.Value)
			if inc, ok := result.Increments[m.Label]; ok {
				part += fmt.Sprintf(" (+%d)", inc)
			}

			parts = append(parts, part)
		}
	}

	return strings.Join(parts, ", ")
}

// LogKey turns a metric label into a log and metric friendly key.
func LogKey(label string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
}
