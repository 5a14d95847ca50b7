package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/okian/counters/internal/domain/counter"
	"github.com/okian/counters/pkg/logger"
)

// CounterDependencies defines the registry operations behind /counters.
type CounterDependencies interface {
	Create(ctx context.Context, name string) (counter.Counter, error)
	Read(ctx context.Context, name string) (counter.Counter, error)
	Update(ctx context.Context, name string) (counter.Counter, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]counter.Counter, error)
}

// CountersHandler handles /counters requests.
type CountersHandler struct {
	deps CounterDependencies
	log  logger.Logger
}

// NewCountersHandler creates a new counters handler.
func NewCountersHandler(deps CounterDependencies, log logger.Logger) *CountersHandler {
	return &CountersHandler{deps: deps, log: log}
}

// HandleCreate handles POST /counters/{name}.
func (h *CountersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_counter"
	c, err := h.deps.Create(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, newCounterView(c))
}

// HandleRead handles GET /counters/{name}.
func (h *CountersHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	const op = "api.read_counter"
	c, err := h.deps.Read(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCounterView(c))
}

// HandleUpdate handles PUT /counters/{name}.
func (h *CountersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_counter"
	c, err := h.deps.Update(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, newCounterView(c))
}

// HandleDelete handles DELETE /counters/{name}.
func (h *CountersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	const op = "api.delete_counter"
	if err := h.deps.Delete(r.Context(), r.PathValue("name")); err != nil {
		h.writeFailure(w, r, op, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /counters.
func (h *CountersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_counters"
	list, err := h.deps.List(r.Context())
	if err != nil {
		h.writeFailure(w, r, op, err)
		return
	}
	out := make(CounterListView, len(list))
	for i, c := range list {
		out[i] = newCounterView(c)
	}
	writeJSON(w, http.StatusOK, out)
}

// writeFailure translates registry errors into status codes and bodies.
func (h *CountersHandler) writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, counter.ErrNotFound):
		writeError(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, counter.ErrConflict):
		writeError(w, http.StatusConflict, msgConflict)
	case errors.Is(err, counter.ErrInvalidName):
		h.log.Debug(r.Context(), "rejected counter name", logger.Error(WrapKind(op, ErrBadRequest, err)))
		writeError(w, http.StatusBadRequest, msgInvalidName)
	default:
		h.log.Error(r.Context(), "counter operation failed", logger.Error(WrapKind(op, ErrInternal, err)))
		writeError(w, http.StatusInternalServerError, msgInternal)
	}
}
