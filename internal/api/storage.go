package api

import (
	"net/http"

	"github.com/omnizone/hostd/internal/model"
)

func (srv *Server) handlePools(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	pools, err := srv.store.LatestZFSPools(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query pools failed", err)
		return
	}
	if pool := r.URL.Query().Get("pool"); pool != "" {
		var filtered []model.ZFSPool
		for _, p := range pools {
			if p.Pool == pool {
				filtered = append(filtered, p)
			}
		}
		pools = filtered
	}
	if health := r.URL.Query().Get("health"); health != "" {
		var filtered []model.ZFSPool
		for _, p := range pools {
			if p.Health == health {
				filtered = append(filtered, p)
			}
		}
		pools = filtered
	}
	if poolType := r.URL.Query().Get("pool_type"); poolType != "" {
		var filtered []model.ZFSPool
		for _, p := range pools {
			if p.PoolType == poolType {
				filtered = append(filtered, p)
			}
		}
		pools = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"pools": pools})
}

func (srv *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	datasets, err := srv.store.LatestZFSDatasets(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query datasets failed", err)
		return
	}
	if pool := r.URL.Query().Get("pool"); pool != "" {
		var filtered []model.ZFSDataset
		for _, d := range datasets {
			if d.Pool == pool {
				filtered = append(filtered, d)
			}
		}
		datasets = filtered
	}
	if typ := r.URL.Query().Get("type"); typ != "" {
		var filtered []model.ZFSDataset
		for _, d := range datasets {
			if d.Type == typ {
				filtered = append(filtered, d)
			}
		}
		datasets = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
}

func (srv *Server) handleDisks(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	disks, err := srv.store.LatestDisks(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query disks failed", err)
		return
	}
	if r.URL.Query().Get("available") == "true" {
		var filtered []model.Disk
		for _, d := range disks {
			if d.IsAvailable {
				filtered = append(filtered, d)
			}
		}
		disks = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"disks": disks})
}

// handleDiskIO serves the latest per-device disk_io_stats row; the
// §4.7 time-series sampling strategies are implemented only for
// network_usage and pool_io_stats.
func (srv *Server) handleDiskIO(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	rows, err := srv.store.LatestDiskIOStats(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query disk io failed", err)
		return
	}
	if device := r.URL.Query().Get("device"); device != "" {
		var filtered []model.DiskIOStats
		for _, row := range rows {
			if row.DeviceName == device {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"diskIO": rows})
}

func (srv *Server) handlePoolIO(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	pool := r.URL.Query().Get("pool")
	since := querySince(r)
	perEntity := queryBool(r, "per_pool", true)
	limit := queryInt(r, "limit", srv.cfg.Stats.DefaultSampleLimit)
	samples := queryInt(r, "samples", srv.cfg.Stats.DefaultSampleLimit)
	if limit > srv.cfg.Stats.MaxSampleLimit {
		limit = srv.cfg.Stats.MaxSampleLimit
	}

	rows, meta, err := srv.store.QueryPoolIOStats(host, pool, since, limit, samples, perEntity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query pool io failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"poolIO": rows, "sampling": meta})
}

func (srv *Server) handleARC(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	arc, err := srv.store.LatestARCStats(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query arc stats failed", err)
		return
	}
	if arc == nil {
		writeJSON(w, http.StatusOK, map[string]any{"arc": nil})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"arc": arc})
}

func (srv *Server) handleDevices(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	devices, err := srv.store.LatestPCIDevices(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query devices failed", err)
		return
	}
	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []model.PCIDevice
		for _, d := range devices {
			if d.DeviceCategory == category {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"devices": devices})
}
