package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"armkala-backend/internal/backup"
	"armkala-backend/internal/bot"
	"armkala-backend/internal/inventory"
	"armkala-backend/internal/ledger"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps error kinds onto HTTP statuses. Anything unrecognized is a
// 500 with the detail kept out of the response body.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var stockErr *ledger.StockError
	var apiErr *bot.APIError
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.As(err, &stockErr):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, ledger.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, ledger.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, inventory.ErrSaveInProgress):
		status, msg = http.StatusConflict, err.Error()
	case errors.Is(err, inventory.ErrFileFormat),
		errors.Is(err, inventory.ErrValidation),
		errors.Is(err, ledger.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, backup.ErrNotConfigured),
		errors.Is(err, backup.ErrNeedsPassword),
		errors.Is(err, bot.ErrNoToken):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, backup.ErrNoBackupFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.As(err, &apiErr):
		status, msg = http.StatusBadGateway, err.Error()
	}

	if status == http.StatusInternalServerError {
		a.Log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeBody(r *http.Request, into any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return errors.Join(ledger.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, errors.Join(ledger.ErrValidation, errors.New("invalid id"))
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) int {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return def
}

// actingUser is the username the desktop client attributes its requests to.
// The server binds to loopback; this is attribution, not authentication.
func actingUser(r *http.Request) string {
	return r.Header.Get("X-Admin-User")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
