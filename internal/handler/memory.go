// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/counsel-ai/memory-engine/internal/memory"
	"github.com/counsel-ai/memory-engine/internal/middleware"
	"github.com/counsel-ai/memory-engine/internal/model"
	"github.com/counsel-ai/memory-engine/pkg/logger"
)

// MemoryHandler exposes assembled memory and memory stats.
type MemoryHandler struct {
	manager *memory.Manager
	logger  *logger.Logger
}

// NewMemoryHandler creates a new memory handler.
func NewMemoryHandler(mgr *memory.Manager, log *logger.Logger) *MemoryHandler {
	return &MemoryHandler{
		manager: mgr,
		logger:  log,
	}
}

// Assemble handles GET /api/v1/memory?session_id=...
func (h *MemoryHandler) Assemble(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetOwnerID(ctx)
	sessionID := r.URL.Query().Get("session_id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	asm, err := h.manager.Assemble(ctx, ownerID, sessionID)
	if err != nil {
		h.logger.Error("failed to assemble memory")
		writeError(w, http.StatusInternalServerError, "failed to assemble memory")
		return
	}

	writeJSON(w, http.StatusOK, model.MemoryResponse{
		Memory:   asm.Memory,
		Degraded: asm.Degraded,
	})
}

// Stats handles GET /api/v1/memory/stats?session_id=...
func (h *MemoryHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetOwnerID(ctx)
	sessionID := r.URL.Query().Get("session_id")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.manager.MemoryStats(ctx, ownerID, sessionID)
	if err != nil {
		h.logger.Error("failed to compute memory stats")
		writeError(w, http.StatusInternalServerError, "failed to compute memory stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Continuity handles GET /api/v1/memory/continuity?session_id=...&q=...
func (h *MemoryHandler) Continuity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetOwnerID(ctx)
	sessionID := r.URL.Query().Get("session_id")
	query := r.URL.Query().Get("q")

	if err := middleware.ValidateSessionID(sessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if query == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	blurb, err := h.manager.ContinuityContext(ctx, ownerID, sessionID, query)
	if err != nil {
		h.logger.Error("failed to build continuity context")
		writeError(w, http.StatusInternalServerError, "failed to build continuity context")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"context": blurb})
}
