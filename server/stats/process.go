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

package stats

import (
	"os"
	"sync"

	"github.com/mackerelio/go-osstat/cpu"
	"github.com/shirou/gopsutil/v4/process"
)

const (
	cpuModeUser   = "user"
	cpuModeSystem = "system"
	cpuModeIdle   = "idle"
)

// CPUSampler turns consecutive go-osstat CPU readings into usage gauges.
type CPUSampler struct {
	mu   sync.Mutex
	prev *cpu.Stats
	get  func() (*cpu.Stats, error)
}

// NewCPUSampler returns a sampler reading the host CPU counters.
func NewCPUSampler() *CPUSampler {
	return &CPUSampler{get: cpu.Get}
}

// Sample reads the CPU counters and updates the gauges with the delta since the
// previous call. The first call only records a baseline and returns false.
func (s *CPUSampler) Sample() (bool, error) {
	cur, err := s.get()
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.prev
	s.prev = cur

	if prev == nil {
		return false, nil
	}

	total := float64(cur.Total - prev.Total)
	if total <= 0 {
		return false, nil
	}

	HostCPUUsage.WithLabelValues(cpuModeUser).Set(share(cur.User, prev.User, total))
	HostCPUUsage.WithLabelValues(cpuModeSystem).Set(share(cur.System, prev.System, total))
	HostCPUUsage.WithLabelValues(cpuModeIdle).Set(share(cur.Idle, prev.Idle, total))

	return true, nil
}

func share(cur, prev uint64, total float64) float64 {
	return float64(cur-prev) / total * 100
}

// ReadRSS returns the resident set size of the current process.
func ReadRSS() (uint64, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return 0, err
	}

	info, err := proc.MemoryInfo()
	if err != nil {
		return 0, err
	}

	return info.RSS, nil
}
