// Copyright (c) 2025 Seedfast
// Licensed under the MIT License. See LICENSE file in the project root for details.

package relay

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"

	qerrors "querydeck/cli/internal/errors"
)

// Paths served by Handler.
const (
	DataPath    = "/api/data"
	HealthPath  = "/api/health"
	VersionPath = "/api/version"
)

// maxBodyBytes caps the request body; queries are short text.
const maxBodyBytes = 1 << 20

// FailureBody is the JSON body of every failed relay call.
type FailureBody struct {
	Error   string       `json:"error"`
	Kind    qerrors.Kind `json:"kind,omitempty"`
	Details any          `json:"details,omitempty"`
}

// Body renders f as a FailureBody.
func Body(f *Failure) FailureBody {
	return FailureBody{Error: f.Message, Kind: f.Kind, Details: f.Details}
}

// StatusCode returns the HTTP status for a failure kind.
func StatusCode(kind qerrors.Kind) int {
	if kind == qerrors.MissingQuery {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// HandlerOptions configures the HTTP surface.
type HandlerOptions struct {
	// AllowedOrigins lists origins permitted for cross-origin calls; "*" allows any.
	AllowedOrigins []string
	// Version is reported by GET /api/version.
	Version string
}

// NewHandler returns the relay's HTTP handler.
func NewHandler(svc *Service, opts HandlerOptions) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+DataPath, func(w http.ResponseWriter, r *http.Request) {
		var req Request
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			svc.log.Warn("cannot read request body", svc.log.Args("error", err.Error()))
			writeJSON(w, http.StatusBadRequest, FailureBody{
				Error:   "cannot read request body",
				Kind:    qerrors.MissingQuery,
				Details: err.Error(),
			})
			return
		}
		// A body that is not a JSON object counts as a request without a query.
		_ = json.Unmarshal(body, &req)
		resp := svc.Relay(r.Context(), req)
		if resp.Failure != nil {
			writeJSON(w, StatusCode(resp.Failure.Kind), Body(resp.Failure))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(resp.Rows)
	})
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "engine": svc.Engine()})
	})
	mux.HandleFunc("GET "+VersionPath, func(w http.ResponseWriter, r *http.Request) {
		v := opts.Version
		if v == "" {
			v = "unknown"
		}
		writeJSON(w, http.StatusOK, map[string]string{"version": v})
	})
	return cors(opts.AllowedOrigins, mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// cors answers preflight requests and sets Access-Control-Allow-Origin for
// permitted origins.
func cors(allowed []string, next http.Handler) http.Handler {
	anyOrigin := len(allowed) == 0 || slices.Contains(allowed, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case anyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.ContainsFunc(allowed, func(o string) bool { return strings.EqualFold(o, origin) }):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
