package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleHealth is the liveness probe: the process can accept connections
// and the database is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.HealthCheck(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":  "unhealthy",
			"service": "idxscope-core",
			"error":   err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"service": "idxscope-core",
	})
}

// handleSystemStatus is the operational status endpoint: process uptime,
// goroutine count, and host CPU/memory, for ops dashboards rather than
// load-balancer probes.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cpu usage")
		cpuPercent = []float64{0}
	}
	vm, err := mem.VirtualMemory()
	memPercent := 0.0
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read memory usage")
	} else {
		memPercent = vm.UsedPercent
	}

	var goMem runtime.MemStats
	runtime.ReadMemStats(&goMem)

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "running",
		"uptime_seconds":   time.Since(s.startedAt).Seconds(),
		"goroutines":       runtime.NumGoroutine(),
		"host_cpu_percent": cpuPercent[0],
		"host_mem_percent": memPercent,
		"go_alloc_mb":      goMem.Alloc / 1024 / 1024,
		"go_num_gc":        goMem.NumGC,
	})
}
