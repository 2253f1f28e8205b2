package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/counsel-ai/memory-engine/internal/middleware"
	"github.com/counsel-ai/memory-engine/internal/model"
	"github.com/counsel-ai/memory-engine/internal/service"
	"github.com/counsel-ai/memory-engine/internal/store"
	"github.com/counsel-ai/memory-engine/pkg/logger"
)

// RecordHandler handles conversation record endpoints.
type RecordHandler struct {
	service *service.RecordService
	logger  *logger.Logger
}

// NewRecordHandler creates a new record handler.
func NewRecordHandler(svc *service.RecordService, log *logger.Logger) *RecordHandler {
	return &RecordHandler{
		service: svc,
		logger:  log,
	}
}

// Create handles POST /api/v1/records
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetOwnerID(ctx)

	var req model.CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateSessionID(req.SessionID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.service.Create(ctx, ownerID, &req)
	if err != nil {
		h.logger.Error("failed to create record")
		writeError(w, http.StatusInternalServerError, "failed to create record")
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// Get handles GET /api/v1/records/:id
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetOwnerID(ctx)
	recordID := chi.URLParam(r, "id")

	if err := middleware.ValidateRecordID(recordID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.service.Get(ctx, ownerID, recordID)
	if err != nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// AppendMessage handles POST /api/v1/records/:id/messages
func (h *RecordHandler) AppendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID := middleware.GetOwnerID(ctx)
	recordID := chi.URLParam(r, "id")

	if err := middleware.ValidateRecordID(recordID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.AppendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateRole(req.Role); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageContent(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.service.Append(ctx, ownerID, recordID, &req)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "record not found")
			return
		}
		h.logger.Error("failed to append message")
		writeError(w, http.StatusInternalServerError, "failed to append message")
		return
	}

	writeJSON(w, http.StatusOK, rec)
}
