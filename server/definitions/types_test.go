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

package definitions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEnvironment(t *testing.T) {
	cases := map[string]Environment{
		"":             EnvDevelopment,
		"dev":          EnvDevelopment,
		" Production ": EnvProduction,
		"prod":         EnvProduction,
		"staging":      EnvStaging,
		"qa":           Environment("qa"),
	}

	for in, want := range cases {
		assert.Equal(t, want, ParseEnvironment(in), "input %q", in)
	}
}

func TestEnvironmentProductionLike(t *testing.T) {
	assert.True(t, EnvProduction.IsProductionLike())
	assert.True(t, EnvStaging.IsProductionLike())
	assert.False(t, EnvDevelopment.IsProductionLike())
	assert.True(t, Environment("qa").IsDevelopmentLike())
}
