// Package api exposes the attacker-facing HTTP surface: the fake
// authentication ladder, bait-file downloads, beacon activation, and the
// catch-all deception route. Every route answers 200, 401 or 403; there is
// no 404 here, an unknown path is an invitation, not an error.
package api

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/adapters/filegen"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/ports"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/infrastructure/metrics"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// trackPixel is a 1x1 transparent PNG returned by the activation endpoint.
var trackPixel, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

// Handler routes HTTP traffic into the maze and beacon services.
type Handler struct {
	maze    ports.MazeService
	tokens  ports.TokenService
	beacons ports.BeaconService
	encoder ports.FileEncoder
	store   ports.EndpointStore
	sink    ports.AuditSink
	logger  *slog.Logger
}

func NewHandler(maze ports.MazeService, tokens ports.TokenService, beacons ports.BeaconService, encoder ports.FileEncoder, store ports.EndpointStore, sink ports.AuditSink, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		maze:    maze,
		tokens:  tokens,
		beacons: beacons,
		encoder: encoder,
		store:   store,
		sink:    sink,
		logger:  logger,
	}
}

// RegisterRoutes registers all routes with the provided ServeMux. The bare
// "/" pattern is the maze catch-all; specific patterns take precedence.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /metrics", h.Metrics)

	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.HandleFunc("POST /api/v1/auth/elevate", h.Elevate)
	mux.HandleFunc("POST /api/v1/auth/internal", h.Internal)

	mux.HandleFunc("GET /api/download/{filename...}", h.Download)
	mux.HandleFunc("GET /track/{beacon}", h.Track)

	mux.HandleFunc("/", h.Maze)
}

// Root advertises the API like a real service index would, seeding the first
// breadcrumbs of the maze.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "corporate-api-gateway",
		"version": "2.4.1",
		"status":  "operational",
		"endpoints": []string{
			"/api/v1/auth/login",
			"/api/v1/users",
			"/api/v1/orders",
			"/api/v1/products",
		},
		"documentation": "/api/v1/docs",
	}, h.logger)
}

// Metrics serves Prometheus metrics.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// HealthCheck reports store reachability and maze statistics. This is the
// operator's endpoint, not part of the deception surface.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := "UP"
	details := map[string]any{"store": "OK"}

	if err := h.store.Ping(r.Context()); err != nil {
		status = "DEGRADED"
		details["store"] = err.Error()
	} else if stats, err := h.store.Stats(r.Context()); err == nil {
		details["endpoints"] = stats.Endpoints
		details["beacons"] = stats.Beacons
		details["activated_beacons"] = stats.ActivatedBeacons
		metrics.StoredEndpoints.Set(float64(stats.Endpoints))
	}

	code := http.StatusOK
	if status == "DEGRADED" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "details": details}, h.logger)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login always succeeds: any credential pair earns a user-level token. The
// attempt, including the credentials tried, goes to the audit trail.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Username == "" {
		req.Username = "user"
	}

	raw, tok := h.tokens.IssueUserToken(req.Username)
	h.sink.Record(slog.LevelWarn, domain.EventLoginAttempt, map[string]any{
		"ip":       ClientIP(r),
		"username": req.Username,
		"password": req.Password,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"token":      raw,
		"token_type": "Bearer",
		"expires_in": 3600,
		"user": map[string]any{
			"username": tok.Subject,
			"role":     tok.LevelStr,
		},
	}, h.logger)
}

// Elevate trades a user token for an admin one. Callers below user level get
// a 403 pointing back down the ladder.
func (h *Handler) Elevate(w http.ResponseWriter, r *http.Request) {
	raw, tok, err := h.tokens.IssueAdminToken(r.Header.Get("Authorization"))
	if err != nil {
		h.sink.Record(slog.LevelWarn, domain.EventElevation, map[string]any{
			"ip": ClientIP(r), "granted": false,
		})
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":   "Forbidden",
			"message": "Valid user token required for elevation",
			"hint":    "POST /api/v1/auth/login to obtain a token",
		}, h.logger)
		return
	}

	h.sink.Record(slog.LevelWarn, domain.EventElevation, map[string]any{
		"ip": ClientIP(r), "granted": true, "subject": tok.Subject,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      raw,
		"token_type": "Bearer",
		"role":       tok.LevelStr,
		"message":    "Privileges elevated",
	}, h.logger)
}

// Internal trades an admin token for an internal-tier one, the top of the
// ladder.
func (h *Handler) Internal(w http.ResponseWriter, r *http.Request) {
	raw, tok, err := h.tokens.IssueInternalToken(r.Header.Get("Authorization"))
	if err != nil {
		h.sink.Record(slog.LevelWarn, domain.EventInternalAccess, map[string]any{
			"ip": ClientIP(r), "granted": false,
		})
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":   "Forbidden",
			"message": "Admin token required for internal access",
			"hint":    "Request elevation at /api/v1/auth/elevate",
		}, h.logger)
		return
	}

	h.sink.Record(slog.LevelError, domain.EventInternalAccess, map[string]any{
		"ip": ClientIP(r), "granted": true, "subject": tok.Subject,
	})
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      raw,
		"token_type": "Bearer",
		"role":       tok.LevelStr,
		"message":    "Internal service access granted",
	}, h.logger)
}

// Download serves a bait file for any requested filename, minting a fresh
// beacon per download so each copy in the wild is individually traceable.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")
	if name == "" {
		name = "document.pdf"
	}
	fileType := filegen.TypeForFilename(name)

	id, err := h.beacons.Create(r.Context(), fileType, r.URL.Path)
	if err != nil {
		// Even with the beacon store down the attacker gets a file; an
		// untracked bait beats a suspicious error page.
		h.logger.Error("beacon create failed", "filename", name, "error", err)
		id = "00000000-0000-0000-0000-000000000000"
	}

	data, contentType, err := h.encoder.Encode(fileType, id, map[string]string{"source": name})
	if err != nil {
		h.logger.Error("bait encode failed", "filename", name, "type", fileType, "error", err)
		writeJSON(w, http.StatusOK, map[string]any{"status": "queued", "message": "Export is being prepared"}, h.logger)
		return
	}

	h.beacons.RecordDownload(r.Context(), id, ClientIP(r))

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("bait write failed", "filename", name, "error", err)
	}
}

// Track is the beacon activation endpoint. It answers an identical 200 pixel
// for known and unknown IDs so probing it reveals nothing.
func (h *Handler) Track(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("beacon")
	h.beacons.RecordActivation(r.Context(), id, ClientIP(r))

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(trackPixel); err != nil {
		h.logger.Warn("pixel write failed", "beacon", id, "error", err)
	}
}

// Maze is the catch-all: every path not claimed above falls into the
// deception engine.
func (h *Handler) Maze(w http.ResponseWriter, r *http.Request) {
	resp := h.maze.Handle(r.Context(), domain.MazeRequest{
		Method:    r.Method,
		Path:      r.URL.Path,
		RawToken:  r.Header.Get("Authorization"),
		ClientIP:  ClientIP(r),
		UserAgent: r.Header.Get("User-Agent"),
	})

	h.sink.Record(slog.LevelInfo, domain.EventRequest, map[string]any{
		"ip":         ClientIP(r),
		"method":     r.Method,
		"path":       r.URL.Path,
		"status":     resp.Status,
		"user_agent": r.Header.Get("User-Agent"),
		"delayed_ms": resp.Delay.Milliseconds(),
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		h.logger.Warn("maze write failed", "path", r.URL.Path, "error", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, doc any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		logger.Warn("response encode failed", "error", err)
	}
}

// serverHeader is advertised on every response; real gateways leak theirs,
// so the decoy does too.
const serverHeader = "nginx/1.24.0"

// WithServerHeader stamps the decoy server banner on all responses.
func WithServerHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", serverHeader)
		next.ServeHTTP(w, r)
	})
}
