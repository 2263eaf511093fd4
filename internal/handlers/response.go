package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/shaibs3/mediavault/internal/harvest"
	"github.com/shaibs3/mediavault/internal/store"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, harvest.Result{Success: false, Message: message})
}

// writeStoreError maps store and harvest errors onto HTTP statuses
func writeStoreError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, store.ErrConstraintViolation):
		writeError(w, http.StatusBadRequest, "Already exist")
	case errors.Is(err, harvest.ErrInvalidLinkPath):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error")
	}
}

// writeResult reports an operation Result; unsuccessful operations are 422
func writeResult(w http.ResponseWriter, res harvest.Result) {
	status := http.StatusOK
	if !res.Success {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, res)
}

func queryID(req *http.Request, key string) (int64, error) {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return id, nil
}

func queryBool(req *http.Request, key string, def bool) (bool, error) {
	raw := req.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}
