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
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/speedforceev/fleetstats/server/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Metric is one row of fleet data.
type Metric struct {
	Label  string
	Value  int64
	Icon   string
	Policy Policy
}

type metricView struct {
	Label  string     `json:"label"`
	Value  int64      `json:"value"`
	Icon   string     `json:"icon"`
	Policy PolicyKind `json:"policy,omitempty"`
}

// MarshalJSON emits label, value, icon and the policy name. Policy bounds stay internal.
func (m Metric) MarshalJSON() ([]byte, error) {
	view := metricView{Label: m.Label, Value: m.Value, Icon: m.Icon}
	if m.Policy != nil {
		view.Policy = m.Policy.Kind()
	}

	return json.Marshal(view)
}

func (m Metric) validate() error {
	if m.Label == "" {
		return errors.ErrEmptyLabel
	}

	if m.Value < 0 {
		return fmt.Errorf("%w: %s=%d", errors.ErrNegativeValue, m.Label, m.Value)
	}

	if m.Policy == nil {
		return fmt.Errorf("%w: %s has no policy", errors.ErrUnknownPolicy, m.Label)
	}

	if err := m.Policy.validate(); err != nil {
		return fmt.Errorf("metric %s: %w", m.Label, err)
	}

	return nil
}

// Collection is an immutable, ordered set of metrics with unique labels.
//
// A Collection is never modified after construction; a mutation pass produces a new one.
type Collection struct {
	metrics    []Metric
	index      map[string]int
	generation uint64
	updatedAt  time.Time
}

// NewCollection validates the metrics and returns a generation 0 collection.
func NewCollection(metrics ...Metric) (*Collection, error) {
	index := make(map[string]int, len(metrics))

	for i, m := range metrics {
		if err := m.validate(); err != nil {
			return nil, err
		}

		if _, dup := index[m.Label]; dup {
			return nil, fmt.Errorf("%w: %s", errors.ErrDuplicateLabel, m.Label)
		}

		index[m.Label] = i
	}

	return &Collection{
		metrics: append(make([]Metric, 0, len(metrics)), metrics...),
		index:   index,
	}, nil
}

// MustNewCollection is NewCollection for hard-coded seeds.
func MustNewCollection(metrics ...Metric) *Collection {
	c, err := NewCollection(metrics...)
	if err != nil {
		panic(err)
	}

	return c
}

// derive returns the successor collection. The label index is shared.
func (c *Collection) derive(metrics []Metric, at time.Time) *Collection {
	return &Collection{
		metrics:    metrics,
		index:      c.index,
		generation: c.generation + 1,
		updatedAt:  at,
	}
}

// Metrics returns a copy of the metrics in configured order.
func (c *Collection) Metrics() []Metric {
	return append(make([]Metric, 0, len(c.metrics)), c.metrics...)
}

// Lookup returns the metric with the given label.
func (c *Collection) Lookup(label string) (Metric, bool) {
	i, ok := c.index[label]
	if !ok {
		return Metric{}, false
	}

	return c.metrics[i], true
}

// Labels returns the labels in configured order.
func (c *Collection) Labels() []string {
	labels := make([]string, len(c.metrics))
	for i, m := range c.metrics {
		labels[i] = m.Label
	}

	return labels
}

func (c *Collection) Len() int {
	return len(c.metrics)
}

// Generation counts the mutation passes applied since the seed (generation 0).
func (c *Collection) Generation() uint64 {
	return c.generation
}

// UpdatedAt is the time of the pass that produced this collection. Zero for the seed.
func (c *Collection) UpdatedAt() time.Time {
	return c.updatedAt
}

// MarshalJSON renders the collection as an array of metrics.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.metrics)
}
