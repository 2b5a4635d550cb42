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

/*
The fleetstats server publishes simulated fleet telemetry for the speedForceEV dashboard. It keeps a
small in-memory collection of fleet figures, mutates it every 20 minutes with bounded randomization,
and serves the current snapshot on /api/live-fleet-stats next to a /health probe.

Configuration is read from an optional file, FLEETSTATS_* environment variables (PORT, NODE_ENV,
CORS_ORIGIN and ENABLE_REQUEST_LOGGING are honored as well) and command line flags.
*/

package main
