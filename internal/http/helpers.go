package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
	"financas/internal/finance"
	"financas/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

type apiError struct {
	Error string `json:"error"`
}

// writeAPIError maps validation sentinels to 422 and everything else
// to 500 without leaking internals.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, finance.ErrInvalidFilter), errors.Is(err, finance.ErrInvalidParameter), errors.Is(err, core.ErrInvalidKind):
		writeJSON(w, http.StatusUnprocessableEntity, apiError{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "API request failed", "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
	}
}

// listParams reads the user/from/to query params shared by the data
// endpoints. Dates use YYYY-MM-DD.
func listParams(r *http.Request) (storage.ListParams, error) {
	var p storage.ListParams

	if v := strings.TrimSpace(r.URL.Query().Get("user")); v != "" && v != "all" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, errors.Join(finance.ErrInvalidFilter, err)
		}
		p.UserID = id
	}
	if v := strings.TrimSpace(r.URL.Query().Get("from")); v != "" {
		from, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return p, errors.Join(finance.ErrInvalidFilter, err)
		}
		p.From = from
	}
	if v := strings.TrimSpace(r.URL.Query().Get("to")); v != "" {
		to, err := time.ParseInLocation("2006-01-02", v, time.UTC)
		if err != nil {
			return p, errors.Join(finance.ErrInvalidFilter, err)
		}
		p.To = to
	}
	return p, nil
}

func queryInt(r *http.Request, name string, def int) int {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func queryFloat(r *http.Request, name string, def float64) float64 {
	if v := strings.TrimSpace(r.URL.Query().Get(name)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
