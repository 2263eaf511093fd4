package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/shaibs3/mediavault/internal/store"
	"go.uber.org/zap"
)

// MediaFilesHandler handles media file records
type MediaFilesHandler struct {
	DB     store.DbProvider
	logger *zap.Logger
}

// NewMediaFilesHandler creates a new mediafiles handler
func NewMediaFilesHandler(dbProvider store.DbProvider) *MediaFilesHandler {
	return &MediaFilesHandler{DB: dbProvider, logger: zap.NewNop()}
}

// RegisterRoutes registers the routes for this handler
func (h *MediaFilesHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("mediafiles")
	router.HandleFunc("/mediafiles", h.handleRemove).Methods("DELETE")
}

// handleRemove deletes a media file record; the file on disk is left alone
func (h *MediaFilesHandler) handleRemove(w http.ResponseWriter, req *http.Request) {
	id, err := queryID(req, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.DB.RemoveMediaFile(req.Context(), id); err != nil {
		writeStoreError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Mediafile removed"})
}
