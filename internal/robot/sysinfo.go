// ABOUTME: Host resource sampling for the robot status display
// ABOUTME: Collects CPU, memory and process RSS via gopsutil
package robot

import (
	"os"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// HostStats is a point-in-time view of robot resources
type HostStats struct {
	CPUPercent float64
	RAMPercent float64
	ProcessRSS uint64
	NetSent    uint64 // bytes since previous sample
	NetRecv    uint64
}

// hostSampler keeps the counters needed to report network deltas
type hostSampler struct {
	proc     *process.Process
	lastSent uint64
	lastRecv uint64
}

func newHostSampler() *hostSampler {
	s := &hostSampler{}
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		s.proc = p
	}
	return s
}

// Sample collects what is available; missing readings stay zero
func (s *hostSampler) Sample() HostStats {
	var stats HostStats

	if pct, err := cpu.Percent(0, false); err == nil && len(pct) > 0 {
		stats.CPUPercent = pct[0]
	}

	if vmem, err := mem.VirtualMemory(); err == nil {
		stats.RAMPercent = vmem.UsedPercent
	}

	if s.proc != nil {
		if info, err := s.proc.MemoryInfo(); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	if io, err := net.IOCounters(false); err == nil && len(io) > 0 {
		sent, recv := io[0].BytesSent, io[0].BytesRecv
		if s.lastSent > 0 && sent >= s.lastSent && recv >= s.lastRecv {
			stats.NetSent = sent - s.lastSent
			stats.NetRecv = recv - s.lastRecv
		}
		s.lastSent, s.lastRecv = sent, recv
	}

	return stats
}
