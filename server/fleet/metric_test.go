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
	"math"
	"testing"

	"github.com/speedforceev/fleetstats/server/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollectionValidation(t *testing.T) {
	tests := []struct {
		name    string
		metrics []Metric
		wantErr error
	}{
		{
			name:    "empty label",
			metrics: []Metric{{Label: "", Value: 1, Policy: Static{}}},
			wantErr: errors.ErrEmptyLabel,
		},
		{
			name: "duplicate label",
			metrics: []Metric{
				{Label: "Active", Value: 1, Policy: Static{}},
				{Label: "Active", Value: 2, Policy: Static{}},
			},
			wantErr: errors.ErrDuplicateLabel,
		},
		{
			name:    "negative value",
			metrics: []Metric{{Label: "Active", Value: -1, Policy: Static{}}},
			wantErr: errors.ErrNegativeValue,
		},
		{
			name:    "missing policy",
			metrics: []Metric{{Label: "Active", Value: 1}},
			wantErr: errors.ErrUnknownPolicy,
		},
		{
			name:    "inverted bounds",
			metrics: []Metric{{Label: "Active", Value: 1, Policy: BoundedRandom{Min: 10, Max: 5}}},
			wantErr: errors.ErrInvalidBounds,
		},
		{
			name:    "negative step",
			metrics: []Metric{{Label: "Km", Value: 1, Policy: IncrementingRandom{MinStep: -1, MaxStep: 5}}},
			wantErr: errors.ErrInvalidBounds,
		},
		{
			name:    "bounds wider than int64",
			metrics: []Metric{{Label: "Active", Value: 1, Policy: BoundedRandom{Min: 0, Max: math.MaxInt64}}},
			wantErr: errors.ErrInvalidBounds,
		},
		{
			name:    "step wider than int64",
			metrics: []Metric{{Label: "Km", Value: 1, Policy: IncrementingRandom{MinStep: 0, MaxStep: math.MaxInt64}}},
			wantErr: errors.ErrInvalidBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewCollection(tt.metrics...)

			assert.Nil(t, c)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewCollectionCopiesInput(t *testing.T) {
	metrics := DefaultMetrics()

	c, err := NewCollection(metrics...)
	require.NoError(t, err)

	metrics[0].Value = 1

	got, ok := c.Lookup(LabelDeployed)
	require.True(t, ok)
	assert.Equal(t, int64(DeployedVehicles), got.Value)

	out := c.Metrics()
	out[0].Value = 2

	got, _ = c.Lookup(LabelDeployed)
	assert.Equal(t, int64(DeployedVehicles), got.Value)
}

func TestCollectionLookupMissing(t *testing.T) {
	_, ok := DefaultCollection().Lookup("Parked")
	assert.False(t, ok)
}

func TestMustNewCollectionPanics(t *testing.T) {
	assert.Panics(t, func() {
		MustNewCollection(Metric{Label: "", Policy: Static{}})
	})
}

func TestCollectionJSON(t *testing.T) {
	out, err := json.Marshal(DefaultCollection())
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"label":"Deployed","value":3820,"icon":"mdi mdi-moped-electric","policy":"static"},
		{"label":"Active","value":2974,"icon":"mdi mdi-car-multiple","policy":"bounded_random"},
		{"label":"Kilometers","value":7000000,"icon":"mdi mdi-map-marker-distance","policy":"incrementing_random"}
	]`, string(out))
}

func TestEmptyCollectionJSON(t *testing.T) {
	c, err := NewCollection()
	require.NoError(t, err)

	out, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))

	store, err := NewStore(c)
	require.NoError(t, err)

	_, err = store.Tick()
	require.NoError(t, err)

	out, err = json.Marshal(store.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestWidestDrawableBounds(t *testing.T) {
	_, err := NewCollection(Metric{Label: "Active", Value: 1, Policy: BoundedRandom{Min: 1, Max: math.MaxInt64}})
	require.NoError(t, err)

	assert.GreaterOrEqual(t, drawInclusive(NewRand(9), 1, math.MaxInt64), int64(1))
}

func TestDrawInclusiveSingleValue(t *testing.T) {
	assert.Equal(t, int64(5), drawInclusive(NewRand(3), 5, 5))
}
