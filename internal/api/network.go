package api

import (
	"net/http"

	"github.com/omnizone/hostd/internal/model"
)

// handleNetworkInterfaces serves the current-state interface inventory,
// optionally narrowed by ?link= and/or ?state=.
func (srv *Server) handleNetworkInterfaces(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	ifaces, err := srv.store.LatestNetworkInterfaces(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query interfaces failed", err)
		return
	}
	link := r.URL.Query().Get("link")
	state := r.URL.Query().Get("state")
	if link != "" || state != "" {
		var filtered []model.NetworkInterface
		for _, ifc := range ifaces {
			if link != "" && ifc.Link != link {
				continue
			}
			if state != "" && ifc.State != state {
				continue
			}
			filtered = append(filtered, ifc)
		}
		ifaces = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"interfaces": ifaces})
}

// handleNetworkUsage implements §4.7's time-series sampling contract
// for the network_usage table, including the NTILE bucketisation
// variant when both ?bucket_count= and ?since= are supplied.
func (srv *Server) handleNetworkUsage(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	link := r.URL.Query().Get("link")
	since := querySince(r)
	perEntity := queryBool(r, "per_interface", true)
	limit := queryInt(r, "limit", srv.cfg.Stats.DefaultSampleLimit)
	samples := queryInt(r, "samples", srv.cfg.Stats.DefaultSampleLimit)
	if limit > srv.cfg.Stats.MaxSampleLimit {
		limit = srv.cfg.Stats.MaxSampleLimit
	}

	if bucketCount := queryInt(r, "bucket_count", 0); bucketCount > 0 && since != nil {
		rows, meta, err := srv.store.QueryNetworkUsageBucketed(host, link, *since, bucketCount)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "query network usage failed", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"usage": rows, "sampling": meta})
		return
	}

	rows, meta, err := srv.store.QueryNetworkUsage(host, link, since, limit, samples, perEntity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query network usage failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"usage": rows, "sampling": meta})
}

func (srv *Server) handleIPAddresses(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	addrs, err := srv.store.LatestIPAddresses(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query ip addresses failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ipaddresses": addrs})
}

func (srv *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	routes, err := srv.store.LatestRoutes(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query routes failed", err)
		return
	}
	if r.URL.Query().Get("is_default") == "true" {
		var filtered []model.Route
		for _, route := range routes {
			if route.IsDefault {
				filtered = append(filtered, route)
			}
		}
		routes = filtered
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": routes})
}
