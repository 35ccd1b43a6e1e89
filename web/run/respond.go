package webapp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tiaanhavenga/DriveCatalogue/app"
	"github.com/tiaanhavenga/DriveCatalogue/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeEngineError translates engine errors to HTTP statuses.
func (wa *WebApp) writeEngineError(w http.ResponseWriter, err error) {
	var qerr *models.QueryError
	switch {
	case errors.Is(err, app.ErrUnknownRoot), errors.Is(err, app.ErrNoJob):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrRootExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrInvalidRoot), errors.As(err, &qerr):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrQueueClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		wa.Log.Errorw("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
