package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/omnizone/hostd/internal/auth"
	"github.com/omnizone/hostd/internal/config"
	"github.com/omnizone/hostd/internal/hoststate"
	"github.com/omnizone/hostd/internal/scheduler"
	"github.com/omnizone/hostd/internal/store"
)

// Server wires the Query API and task-queue mutation endpoints onto a
// gorilla/mux router.
type Server struct {
	store  *store.Store
	state  *hoststate.State
	sched  *scheduler.Scheduler
	cfg    *config.Config
	host   string
	Router *mux.Router
}

// New builds the Server's route table. Attach console bridge routes
// separately via Router.Handle before starting the HTTP listener.
func New(s *store.Store, st *hoststate.State, sch *scheduler.Scheduler, cfg *config.Config, host string) *Server {
	srv := &Server{store: s, state: st, sched: sch, cfg: cfg, host: host, Router: mux.NewRouter()}
	srv.routes()
	return srv
}

func (srv *Server) routes() {
	r := srv.Router

	r.HandleFunc("/monitoring/health", srv.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/host", srv.handleHost).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/summary", srv.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/status", srv.handleStatus).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/collect", srv.handleCollect).Methods(http.MethodPost)

	r.HandleFunc("/monitoring/network/interfaces", srv.handleNetworkInterfaces).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/network/usage", srv.handleNetworkUsage).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/network/ipaddresses", srv.handleIPAddresses).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/network/routes", srv.handleRoutes).Methods(http.MethodGet)

	r.HandleFunc("/monitoring/storage/pools", srv.handlePools).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/storage/datasets", srv.handleDatasets).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/storage/disks", srv.handleDisks).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/storage/disk-io", srv.handleDiskIO).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/storage/pool-io", srv.handlePoolIO).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/storage/arc", srv.handleARC).Methods(http.MethodGet)

	r.HandleFunc("/monitoring/system/cpu", srv.handleCPU).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/system/memory", srv.handleMemory).Methods(http.MethodGet)
	r.HandleFunc("/monitoring/system/load", srv.handleLoad).Methods(http.MethodGet)

	r.HandleFunc("/monitoring/devices", srv.handleDevices).Methods(http.MethodGet)

	r.HandleFunc("/network/etherstubs", srv.handleEtherstubList).Methods(http.MethodGet)
	r.HandleFunc("/network/etherstubs", srv.handleEtherstubCreate).Methods(http.MethodPost)
	r.HandleFunc("/network/etherstubs/{name}", srv.handleEtherstubDelete).Methods(http.MethodDelete)

	r.HandleFunc("/tasks", srv.handleListTasks).Methods(http.MethodGet)

	r.HandleFunc("/auth/bootstrap", srv.handleBootstrap).Methods(http.MethodPost)

	r.Use(func(next http.Handler) http.Handler {
		return requireAPIKey(srv.store, next)
	})
}

// handleHealth reports liveness only (no auth, no DB dependency) —
// matching §6's unauthenticated health check.
func (srv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (srv *Server) handleHost(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	info, err := srv.store.GetHostInfo(host)
	if err != nil {
		writeError(w, http.StatusNotFound, "host not found", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// handleSummary and handleStatus both read the same HostInfo row;
// summary returns the full record while status narrows to the health
// enum plus error bucket, per §6's "host metadata and service health."
func (srv *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	srv.handleHost(w, r)
}

func (srv *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	info, err := srv.store.GetHostInfo(host)
	if err != nil {
		writeError(w, http.StatusNotFound, "host not found", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"host":         info.Host,
		"status":       info.Status,
		"errorCounts":  info.ErrorCounts,
		"lastError":    info.LastErrorMessage,
	})
}

// handleCollect triggers an out-of-band collection pass for one family
// (or all families) per §4.4/§6's "POST /monitoring/collect."
func (srv *Server) handleCollect(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Type string `json:"type"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	kind := body.Type
	if kind == "all" {
		kind = ""
	}

	start := time.Now()
	results := srv.sched.TriggerCollection(r.Context(), kind)
	writeJSON(w, http.StatusOK, map[string]any{
		"results":   results,
		"queryTime": time.Since(start).Milliseconds(),
	})
}

func (srv *Server) handleBootstrap(w http.ResponseWriter, r *http.Request) {
	key, err := auth.Bootstrap(srv.store, srv.cfg.APIKeys.BootstrapEnabled, srv.cfg.APIKeys.BcryptCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "bootstrap failed", err)
		return
	}
	if key == "" {
		writeError(w, http.StatusForbidden, "bootstrap unavailable", nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"apiKey": key})
}
