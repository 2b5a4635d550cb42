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

import "strings"

// Environment names the deployment stage of the process.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvProduction  Environment = "production"
	EnvStaging     Environment = "staging"
	EnvTest        Environment = "test"
)

// ParseEnvironment normalizes the configured environment name. Empty input yields EnvDevelopment.
func ParseEnvironment(value string) Environment {
	v := strings.ToLower(strings.TrimSpace(value))
	switch v {
	case "":
		return EnvDevelopment
	case "prod":
		return EnvProduction
	case "dev":
		return EnvDevelopment
	default:
		return Environment(v)
	}
}

// IsProductionLike reports whether detailed error messages must be hidden from clients.
func (e Environment) IsProductionLike() bool {
	return e == EnvProduction || e == EnvStaging
}

// IsDevelopmentLike is the inverse of IsProductionLike.
func (e Environment) IsDevelopmentLike() bool {
	return !e.IsProductionLike()
}

func (e Environment) String() string {
	return string(e)
}
