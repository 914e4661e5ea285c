package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/omnizone/hostd/internal/auth"
	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/store"
)

// handleEtherstubList projects the network_interfaces rows whose class
// is "etherstub" — etherstubs are current state, not a task-queue
// resource, so listing reads the store directly.
func (srv *Server) handleEtherstubList(w http.ResponseWriter, r *http.Request) {
	host := queryHost(r, srv.host)
	ifaces, err := srv.store.LatestNetworkInterfaces(host)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query etherstubs failed", err)
		return
	}
	var stubs []model.NetworkInterface
	for _, ifc := range ifaces {
		if ifc.Class == "etherstub" {
			stubs = append(stubs, ifc)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"etherstubs": stubs})
}

// handleEtherstubCreate enqueues an etherstub_create task, per §6's
// "CRUD via task queue" — creation is async; the response carries the
// queued task id, not the finished etherstub.
func (srv *Server) handleEtherstubCreate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name     string `json:"name"`
		Priority string `json:"priority"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", err)
		return
	}
	priority := body.Priority
	if priority == "" {
		priority = "normal"
	}

	metadata, _ := json.Marshal(map[string]string{"name": body.Name})
	id, err := srv.store.CreateTask(model.Task{
		Operation:    "etherstub_create",
		Priority:     priority,
		MetadataJSON: string(metadata),
		CreatedBy:    requestorFromContext(r),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue task failed", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"taskId": id})
}

// handleEtherstubDelete enqueues an etherstub_delete task for the named
// link.
func (srv *Server) handleEtherstubDelete(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	metadata, _ := json.Marshal(map[string]string{"name": name})
	id, err := srv.store.CreateTask(model.Task{
		Operation:    "etherstub_delete",
		Priority:     "normal",
		MetadataJSON: string(metadata),
		CreatedBy:    requestorFromContext(r),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "enqueue task failed", err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"taskId": id})
}

func (srv *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	f := store.TaskFilter{
		ZoneName: r.URL.Query().Get("zone"),
		Status:   r.URL.Query().Get("status"),
		Limit:    queryInt(r, "limit", 100),
	}
	tasks, err := srv.store.ListTasks(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "query tasks failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// requestorFromContext identifies the caller for Task.CreatedBy; the
// bearer key's unhashed lookup prefix is the only caller identity the
// auth model carries (§6 keys are unnamed, bcrypt-hashed bearer
// tokens).
func requestorFromContext(r *http.Request) string {
	raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if len(raw) >= auth.KeyPrefixLen {
		return raw[:auth.KeyPrefixLen]
	}
	return "api"
}
