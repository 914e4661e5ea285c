// Package taskqueue runs queued zone-mutation tasks through a single
// worker loop, claiming tasks from internal/store with zone-level
// mutual exclusion already enforced at the SQL layer (§4.6), and
// dispatching each by its operation name to the matching platform
// command.
package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/omnizone/hostd/internal/model"
	"github.com/omnizone/hostd/internal/runner"
	"github.com/omnizone/hostd/internal/store"
)

// Handler executes one task's operation and returns a human-readable
// result string or an error.
type Handler func(ctx context.Context, t model.Task) (string, error)

// Worker polls for claimable tasks and runs them one at a time,
// dispatching by operation name.
type Worker struct {
	store     *store.Store
	handlers  map[string]Handler
	pollEvery time.Duration
}

// New creates a Worker with the built-in operation handlers wired
// against runner r.
func New(s *store.Store, r *runner.CommandRunner, pollEvery time.Duration) *Worker {
	w := &Worker{store: s, handlers: map[string]Handler{}, pollEvery: pollEvery}
	w.handlers["etherstub_create"] = w.etherstubCreate(r)
	w.handlers["etherstub_delete"] = w.etherstubDelete(r)
	w.handlers["vnic_create"] = w.vnicCreate(r)
	w.handlers["vnic_delete"] = w.vnicDelete(r)
	w.handlers["zone_boot"] = w.zoneAction(r, "boot")
	w.handlers["zone_halt"] = w.zoneAction(r, "halt")
	w.handlers["zone_reboot"] = w.zoneAction(r, "reboot")
	return w
}

// Run cancels any task left running or pending from a previous process
// (§4.6's crash-safe restart), then polls for claimable work until ctx
// is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	if _, err := w.store.CancelStaleTasks(time.Now()); err != nil {
		return fmt.Errorf("cancel stale tasks: %w", err)
	}

	ticker := time.NewTicker(w.pollEvery)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

// drain claims and executes every currently claimable task rather than
// one per tick, so a burst of queued work doesn't wait out the full
// poll interval per task.
func (w *Worker) drain(ctx context.Context) {
	for {
		t, err := w.store.ClaimNextTask(time.Now())
		if err != nil {
			log.Printf("[taskqueue] claim: %v", err)
			return
		}
		if t == nil {
			return
		}
		w.execute(ctx, *t)
	}
}

func (w *Worker) execute(ctx context.Context, t model.Task) {
	handler, ok := w.handlers[t.Operation]
	if !ok {
		w.finish(t.ID, "failed", "", fmt.Sprintf("unknown operation %q", t.Operation))
		return
	}
	result, err := handler(ctx, t)
	if err != nil {
		log.Printf("[taskqueue] task %d (%s) failed: %v", t.ID, t.Operation, err)
		w.finish(t.ID, "failed", "", err.Error())
		return
	}
	w.finish(t.ID, "completed", result, "")
}

func (w *Worker) finish(id int64, status, result, errText string) {
	if err := w.store.UpdateTaskStatus(id, status, result, errText, time.Now()); err != nil {
		log.Printf("[taskqueue] update task %d status: %v", id, err)
	}
}

func (w *Worker) etherstubCreate(r *runner.CommandRunner) Handler {
	return func(ctx context.Context, t model.Task) (string, error) {
		name, err := metadataString(t.MetadataJSON, "name")
		if err != nil {
			return "", err
		}
		res, err := r.Run(ctx, "dladm", "create-etherstub", name)
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", fmt.Errorf("dladm create-etherstub %s: exit %d: %s", name, res.ExitCode, res.Stderr)
		}
		return fmt.Sprintf("created etherstub %s", name), nil
	}
}

func (w *Worker) etherstubDelete(r *runner.CommandRunner) Handler {
	return func(ctx context.Context, t model.Task) (string, error) {
		name, err := metadataString(t.MetadataJSON, "name")
		if err != nil {
			return "", err
		}
		res, err := r.Run(ctx, "dladm", "delete-etherstub", name)
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", fmt.Errorf("dladm delete-etherstub %s: exit %d: %s", name, res.ExitCode, res.Stderr)
		}
		return fmt.Sprintf("deleted etherstub %s", name), nil
	}
}

func (w *Worker) vnicCreate(r *runner.CommandRunner) Handler {
	return func(ctx context.Context, t model.Task) (string, error) {
		name, err := metadataString(t.MetadataJSON, "name")
		if err != nil {
			return "", err
		}
		link, err := metadataString(t.MetadataJSON, "link")
		if err != nil {
			return "", err
		}
		res, err := r.Run(ctx, "dladm", "create-vnic", "-l", link, name)
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", fmt.Errorf("dladm create-vnic %s: exit %d: %s", name, res.ExitCode, res.Stderr)
		}
		return fmt.Sprintf("created vnic %s over %s", name, link), nil
	}
}

func (w *Worker) vnicDelete(r *runner.CommandRunner) Handler {
	return func(ctx context.Context, t model.Task) (string, error) {
		name, err := metadataString(t.MetadataJSON, "name")
		if err != nil {
			return "", err
		}
		res, err := r.Run(ctx, "dladm", "delete-vnic", name)
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", fmt.Errorf("dladm delete-vnic %s: exit %d: %s", name, res.ExitCode, res.Stderr)
		}
		return fmt.Sprintf("deleted vnic %s", name), nil
	}
}

func (w *Worker) zoneAction(r *runner.CommandRunner, action string) Handler {
	return func(ctx context.Context, t model.Task) (string, error) {
		if t.ZoneName == "" {
			return "", fmt.Errorf("%s requires zone_name", action)
		}
		res, err := r.Run(ctx, "zoneadm", "-z", t.ZoneName, action)
		if err != nil {
			return "", err
		}
		if res.ExitCode != 0 {
			return "", fmt.Errorf("zoneadm -z %s %s: exit %d: %s", t.ZoneName, action, res.ExitCode, res.Stderr)
		}
		return fmt.Sprintf("zone %s: %s", t.ZoneName, action), nil
	}
}

func metadataString(metadataJSON, key string) (string, error) {
	if metadataJSON == "" {
		return "", fmt.Errorf("missing metadata")
	}
	var m map[string]string
	if err := json.Unmarshal([]byte(metadataJSON), &m); err != nil {
		return "", fmt.Errorf("parse metadata: %w", err)
	}
	v, ok := m[key]
	if !ok || v == "" {
		return "", fmt.Errorf("metadata missing %q", key)
	}
	return v, nil
}
