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

// Seed labels of the default collection.
const (
	LabelDeployed   = "Deployed"
	LabelActive     = "Active"
	LabelKilometers = "Kilometers"
)

// Seed values of the default collection.
const (
	DeployedVehicles = 3820

	ActiveMin = 2974
	ActiveMax = 3820

	KilometersBase    = 7_000_000
	KilometersMinStep = 150
	KilometersMaxStep = 250
)

// DefaultMetrics returns the hard-coded seed rows served by the dashboard.
func DefaultMetrics() []Metric {
	return []Metric{
		{
			Label:  LabelDeployed,
			Value:  DeployedVehicles,
			Icon:   "mdi mdi-moped-electric",
			Policy: Static{},
		},
		{
			Label:  LabelActive,
			Value:  ActiveMin,
			Icon:   "mdi mdi-car-multiple",
			Policy: BoundedRandom{Min: ActiveMin, Max: ActiveMax},
		},
		{
			Label:  LabelKilometers,
			Value:  KilometersBase,
			Icon:   "mdi mdi-map-marker-distance",
			Policy: IncrementingRandom{MinStep: KilometersMinStep, MaxStep: KilometersMaxStep, Base: KilometersBase},
		},
	}
}

// DefaultCollection returns the seed collection.
func DefaultCollection() *Collection {
	return MustNewCollection(DefaultMetrics()...)
}
