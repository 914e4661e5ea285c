package api

import (
	"encoding/json"
	"net/http"
)

func (srv *Server) handleCPU(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	cpu, err := srv.store.LatestCPUStats(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query cpu stats failed", err)
		return
	}
	if cpu == nil {
		writeJSON(w, http.StatusOK, map[string]any{"cpu": nil})
		return
	}

	body := map[string]any{"cpu": cpu}
	if queryBool(r, "include_cores", false) && cpu.PerCoreJSON != "" {
		var perCore any
		if err := json.Unmarshal([]byte(cpu.PerCoreJSON), &perCore); err == nil {
			body["perCore"] = perCore
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (srv *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	mem, err := srv.store.LatestMemoryStats(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query memory stats failed", err)
		return
	}
	if mem == nil {
		writeJSON(w, http.StatusOK, map[string]any{"memory": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"memory": mem})
}

// handleLoad serves the load-average triplet carried on the CPU
// sample, a thin projection for callers that only want load.
func (srv *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	cpu, err := srv.store.LatestCPUStats(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query load failed", err)
		return
	}
	if cpu == nil {
		writeJSON(w, http.StatusOK, map[string]any{"load": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"load1":  cpu.LoadAvg1,
		"load5":  cpu.LoadAvg5,
		"load15": cpu.LoadAvg15,
	})
}
