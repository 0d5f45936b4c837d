package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ignite/adpilot/internal/audit"
	"github.com/ignite/adpilot/internal/optimizer"
	"github.com/ignite/adpilot/internal/pkg/distlock"
	"github.com/ignite/adpilot/internal/pkg/httputil"
)

// callerHeader identifies the invoking system; apply mode checks it against
// the configured allow-list.
const callerHeader = "X-Api-Caller"

// Handlers carries the dependencies for all API endpoints. Store, archiver
// and redis are optional; a nil value disables that concern.
type Handlers struct {
	engine     *optimizer.Engine
	store      *audit.Store
	archiver   *audit.Archiver
	redis      *redis.Client
	customerID string
	lockTTL    time.Duration
}

// NewHandlers wires the handler set.
func NewHandlers(engine *optimizer.Engine, store *audit.Store, archiver *audit.Archiver, redisClient *redis.Client, customerID string, lockTTL time.Duration) *Handlers {
	return &Handlers{
		engine:     engine,
		store:      store,
		archiver:   archiver,
		redis:      redisClient,
		customerID: customerID,
		lockTTL:    lockTTL,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]string{"status": "ok"})
}

// HandleOptimize runs one optimization invocation. Dry-run and apply share
// the same envelope; only the HTTP status distinguishes the failure kind.
func (h *Handlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	caller := r.Header.Get(callerHeader)

	var req optimizer.Request
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.OptimizationType == "" {
		httputil.JSON(w, http.StatusBadRequest, optimizer.Response{Success: false, Error: "optimizationType is required"})
		return
	}
	if !req.OptimizationType.Valid() {
		httputil.JSON(w, http.StatusBadRequest, optimizer.Response{Success: false, Error: "invalid optimizationType"})
		return
	}

	applyMode := !h.engine.ValidateOnly()
	if applyMode && !h.engine.CallerAllowed(caller) {
		httputil.JSON(w, http.StatusForbidden, optimizer.Response{Success: false, Error: "caller is not authorized for apply mode"})
		return
	}

	// Serialize apply runs per customer account; concurrent applies could
	// double-submit the same mutations. Dry runs never take the lock.
	if applyMode && h.redis != nil {
		lock := distlock.ForCustomer(h.redis, h.customerID, h.lockTTL)
		acquired, err := lock.Acquire(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		if !acquired {
			httputil.JSON(w, http.StatusConflict, optimizer.Response{Success: false, Error: "another apply run is in progress for this account"})
			return
		}
		// Release under a fresh context: if the client disconnected, the
		// request context is already canceled and the lock would stay held
		// until the TTL expired.
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := lock.Release(ctx); err != nil {
				log.Printf("[api] failed to release apply lock: %v", err)
			}
		}()
	}

	resp := h.engine.Optimize(r.Context(), caller, req)
	h.recordRun(r, caller, req, resp)

	status := http.StatusOK
	if !resp.Success {
		status = http.StatusBadGateway
	}
	httputil.JSON(w, status, resp)
}

// recordRun persists the invocation to the audit store and S3 archive.
// Failures here are logged, never surfaced: auditing must not fail a run.
func (h *Handlers) recordRun(r *http.Request, caller string, req optimizer.Request, resp optimizer.Response) {
	if h.store == nil && h.archiver == nil {
		return
	}

	mode := "apply"
	if h.engine.ValidateOnly() {
		mode = "dry_run"
	}
	reqJSON, _ := json.Marshal(req)
	respJSON, _ := json.Marshal(resp)
	run := &audit.Run{
		ID:        uuid.New(),
		Caller:    caller,
		Mode:      mode,
		Request:   reqJSON,
		Report:    respJSON,
		Success:   resp.Success,
		Error:     resp.Error,
		CreatedAt: time.Now().UTC(),
	}

	ctx := r.Context()
	if h.store != nil {
		if err := h.store.RecordRun(ctx, run); err != nil {
			log.Printf("[api] failed to record run %s: %v", run.ID, err)
		}
	}
	if h.archiver != nil {
		if err := h.archiver.ArchiveRun(ctx, run); err != nil {
			log.Printf("[api] failed to archive run %s: %v", run.ID, err)
		}
	}
}

// HandleListRuns returns recent audit rows, newest first.
func (h *Handlers) HandleListRuns(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.NotFound(w, "audit store not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if runs == nil {
		runs = []audit.Run{}
	}
	httputil.OK(w, map[string]any{"runs": runs})
}

// HandleGetRun returns one audit row by id.
func (h *Handlers) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		httputil.NotFound(w, "audit store not configured")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.BadRequest(w, "invalid run id")
		return
	}
	run, err := h.store.GetRun(r.Context(), id)
	if err != nil {
		httputil.NotFound(w, "run not found")
		return
	}
	httputil.OK(w, run)
}
