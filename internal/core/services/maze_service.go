package services

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"log/slog"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/ports"
	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/infrastructure/metrics"
)

// MazeOptions carries the optional collaborators and policy knobs of the
// engine. Zero values select sane defaults.
type MazeOptions struct {
	Cache            ports.ResponseCache
	Bursts           *BurstDetector
	Sink             ports.AuditSink
	Logger           *slog.Logger
	TarpitDelay      time.Duration
	SynthesisTimeout time.Duration
	CacheTTL         time.Duration
}

type mazeService struct {
	store    ports.EndpointStore
	cache    ports.ResponseCache
	gen      ports.ContentGenerator
	fallback ports.ContentGenerator
	tokens   ports.TokenService
	cls      *Classifier
	bursts   *BurstDetector
	sink     ports.AuditSink
	logger   *slog.Logger

	tarpitDelay      time.Duration
	synthesisTimeout time.Duration
	cacheTTL         time.Duration

	now func() time.Time
}

// NewMazeService wires the deception engine. gen may be slow or failing; the
// fallback generator must be local and deterministic, it is the last line of
// the "never show an error" guarantee.
func NewMazeService(store ports.EndpointStore, gen, fallback ports.ContentGenerator, tokens ports.TokenService, cls *Classifier, opts MazeOptions) ports.MazeService {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sink == nil {
		opts.Sink = nopSink{}
	}
	if opts.TarpitDelay <= 0 {
		opts.TarpitDelay = 2 * time.Second
	}
	if opts.SynthesisTimeout <= 0 {
		opts.SynthesisTimeout = 5 * time.Second
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = time.Minute
	}
	if cls == nil {
		cls = NewClassifier(nil)
	}
	return &mazeService{
		store:            store,
		cache:            opts.Cache,
		gen:              gen,
		fallback:         fallback,
		tokens:           tokens,
		cls:              cls,
		bursts:           opts.Bursts,
		sink:             opts.Sink,
		logger:           opts.Logger,
		tarpitDelay:      opts.TarpitDelay,
		synthesisTimeout: opts.SynthesisTimeout,
		cacheTTL:         opts.CacheTTL,
		now:              time.Now,
	}
}

type nopSink struct{}

func (nopSink) Record(slog.Level, string, map[string]any) {}

func (s *mazeService) Handle(ctx context.Context, req domain.MazeRequest) domain.Response {
	path := domain.NormalizePath(req.Path)
	method := strings.ToUpper(req.Method)
	tok := s.tokens.Decode(req.RawToken)
	level := s.cls.Classify(path, method, tok)

	var delay time.Duration
	bursting := s.bursts != nil && s.bursts.Observe(req.ClientIP)
	if bursting || s.cls.SuspectScanner(req.UserAgent, path) {
		delay = s.tarpitDelay
		metrics.TarpitDelays.Inc()
		s.sink.Record(slog.LevelInfo, domain.EventTarpitTrigger, map[string]any{
			"ip": req.ClientIP, "user_agent": req.UserAgent, "path": path, "bursting": bursting,
		})
		s.pause(ctx, delay)
	}

	required := s.cls.RequiredLevel(path)
	if required > level {
		resp := s.wall(path, level, required)
		resp.Delay = delay
		metrics.Requests.WithLabelValues(method, statusLabel(resp.Status)).Inc()
		return resp
	}

	resp := s.resolve(ctx, method, path, level, required)
	resp.Delay = delay
	metrics.Requests.WithLabelValues(method, statusLabel(resp.Status)).Inc()
	return resp
}

// wall is the attacker-facing authorization failure: 401 pointing at the
// login endpoint for anonymous callers, 403 pointing at the elevation
// endpoint for under-privileged ones. Bodies are deterministic so repeated
// hits reproduce identical bytes without a store round trip. Walls are never
// persisted: the (method, path) identity belongs to the content record an
// escalated caller will eventually earn.
func (s *mazeService) wall(path string, level, required domain.AccessLevel) domain.Response {
	if level < domain.LevelUser {
		body, _ := json.Marshal(map[string]any{
			"error":   "Unauthorized",
			"message": "Authentication required",
			"hint":    "POST /api/v1/auth/login to obtain a token",
			"path":    path,
		})
		return domain.Response{Status: http.StatusUnauthorized, Body: body}
	}
	body, _ := json.Marshal(map[string]any{
		"error":           "Forbidden",
		"message":         "Insufficient permissions",
		"hint":            "Request elevation at /api/v1/auth/elevate",
		"current_access":  level.String(),
		"required_access": required.String(),
		"path":            path,
	})
	return domain.Response{Status: http.StatusForbidden, Body: body}
}

func (s *mazeService) resolve(ctx context.Context, method, path string, level, required domain.AccessLevel) domain.Response {
	key := method + " " + path

	if s.cache != nil {
		if data, ok := s.cache.Get(ctx, key); ok {
			metrics.CacheOperations.WithLabelValues("response", "hit").Inc()
			if err := s.store.Touch(ctx, method, path); err != nil {
				s.logger.Warn("touch failed", "method", method, "path", path, "error", err)
			}
			return domain.Response{Status: http.StatusOK, Body: data}
		}
		metrics.CacheOperations.WithLabelValues("response", "miss").Inc()
	}

	rec, err := s.store.GetEndpoint(ctx, method, path)
	if err != nil {
		// Persistence down. Serve an ephemeral success-shaped fallback for
		// this request; an obvious error is itself a fingerprinting signal.
		s.sink.Record(slog.LevelError, domain.EventStoreUnavailable, map[string]any{
			"method": method, "path": path, "error": err.Error(),
		})
		s.logger.Error("endpoint store unavailable", "method", method, "path", path, "error", err)
		body, _ := s.fallback.Generate(ctx, path, method, level, nil)
		return domain.Response{Status: http.StatusOK, Body: body}
	}
	if rec != nil {
		if err := s.store.Touch(ctx, method, path); err != nil {
			s.logger.Warn("touch failed", "method", method, "path", path, "error", err)
		}
		if s.cache != nil && rec.Status == http.StatusOK {
			s.cache.Set(ctx, key, rec.Body, s.cacheTTL)
		}
		return domain.Response{Status: rec.Status, Body: rec.Body}
	}

	return s.synthesize(ctx, method, path, level, required)
}

// synthesize handles a first-ever request to this identity: call out to the
// content generator under a bounded timeout, decorate with breadcrumbs, and
// race other handlers through PutIfAbsent. Generation and persistence are
// detached from request cancellation so an aborted caller still warms the
// store for the next one.
func (s *mazeService) synthesize(ctx context.Context, method, path string, level, required domain.AccessLevel) domain.Response {
	s.sink.Record(slog.LevelWarn, domain.EventNewEndpoint, map[string]any{
		"method": method, "path": path, "access_level": level.String(),
	})

	crumbs := s.pickBreadcrumbs(method, path, level)

	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.synthesisTimeout)
	defer cancel()

	body, err := s.gen.Generate(genCtx, path, method, level, crumbs)
	if err != nil {
		metrics.Synthesis.WithLabelValues("fallback").Inc()
		s.sink.Record(slog.LevelWarn, domain.EventSynthesisFailure, map[string]any{
			"method": method, "path": path, "error": err.Error(),
		})
		body, _ = s.fallback.Generate(genCtx, path, method, level, crumbs)
	} else {
		metrics.Synthesis.WithLabelValues("generator").Inc()
	}
	body = s.decorate(body, method, path, level, crumbs)

	rec := &domain.EndpointRecord{
		Method:      method,
		Path:        path,
		AccessLevel: required,
		Status:      http.StatusOK,
		Body:        body,
		Breadcrumbs: crumbs,
		CreatedAt:   s.now(),
		HitCount:    1,
	}
	canonical, err := s.store.PutIfAbsent(context.WithoutCancel(ctx), rec)
	if err != nil {
		s.sink.Record(slog.LevelError, domain.EventStoreUnavailable, map[string]any{
			"method": method, "path": path, "error": err.Error(),
		})
		s.logger.Error("persist failed, serving ephemeral record", "method", method, "path", path, "error", err)
		return domain.Response{Status: http.StatusOK, Body: body}
	}
	if s.cache != nil {
		s.cache.Set(context.WithoutCancel(ctx), method+" "+path, canonical.Body, s.cacheTTL)
	}
	return domain.Response{Status: canonical.Status, Body: canonical.Body}
}

var breadcrumbTemplates = []string{
	"See also: %s",
	"Related resource available at %s",
	"Deprecated here; current data served from %s",
}

// pickBreadcrumbs selects 1-2 next-hop paths, pseudo-randomly but seeded by
// the request identity so repeated misses for the same identity tend toward
// the same choice.
func (s *mazeService) pickBreadcrumbs(method, path string, level domain.AccessLevel) []string {
	pool := suggestionPool(path, level)
	if len(pool) == 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(identitySeed(method, path)))
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	n := 1 + rng.Intn(2)
	if n > len(pool) {
		n = len(pool)
	}
	return pool[:n]
}

// suggestionPool mirrors the maze's fake topology and biases exploration
// upward: user-level callers see admin paths, admin callers see internal
// ones.
func suggestionPool(path string, level domain.AccessLevel) []string {
	switch {
	case strings.Contains(path, "/internal"):
		return []string{"/internal/deploy/status", "/internal/config/secrets", "/internal/debug/trace"}
	case strings.Contains(path, "/admin"):
		return []string{"/internal/debug/trace", "/api/v2/admin/settings", "/internal/config/database"}
	case strings.Contains(path, "/users"):
		out := []string{"/api/v1/users/123/profile"}
		if level >= domain.LevelUser {
			out = append(out, "/api/v2/admin/users")
		}
		return out
	case strings.Contains(path, "/products"):
		return []string{"/api/v1/orders", "/api/v1/products/456/inventory"}
	default:
		out := []string{"/api/v1/users", "/api/v1/orders"}
		if level >= domain.LevelAdmin {
			out = append(out, "/internal/debug/trace")
		}
		return out
	}
}

// decorate merges breadcrumbs (and occasional bait-file attachments) into
// the synthesized JSON. Non-JSON generator output is wrapped rather than
// rejected.
func (s *mazeService) decorate(body []byte, method, path string, level domain.AccessLevel, crumbs []string) []byte {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		doc = map[string]any{"data": string(body)}
	}

	rng := rand.New(rand.NewSource(identitySeed(method, path) ^ 0x9e3779b9))
	if len(crumbs) > 0 {
		if rng.Intn(2) == 0 {
			doc["_links"] = map[string]any{"related": crumbs}
		} else {
			tmpl := breadcrumbTemplates[rng.Intn(len(breadcrumbTemplates))]
			doc["_meta"] = map[string]any{"hint": strings.Replace(tmpl, "%s", crumbs[0], 1)}
		}
	}

	if method == http.MethodGet {
		if att := baitAttachment(path, rng); att != nil {
			doc["_attachments"] = []any{att}
		}
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return body
	}
	return out
}

// baitAttachment advertises a downloadable bait file on roughly a third of
// the report/export/config style endpoints. Seeded rng keeps the decision
// stable per identity.
func baitAttachment(path string, rng *rand.Rand) map[string]any {
	if rng.Float64() >= 0.3 {
		return nil
	}
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "report") || strings.Contains(p, "analytics"):
		name := "report_" + strconv.Itoa(1000+rng.Intn(9000)) + ".pdf"
		return map[string]any{
			"filename":     name,
			"type":         "pdf",
			"download_url": "/api/download/" + name,
			"description":  "Analytics report",
		}
	case strings.Contains(p, "export") || strings.Contains(p, "data"):
		name := "export_" + strconv.Itoa(1000+rng.Intn(9000)) + ".xlsx"
		return map[string]any{
			"filename":     name,
			"type":         "excel",
			"download_url": "/api/download/" + name,
			"description":  "Data export",
		}
	case strings.Contains(p, "config") || strings.Contains(p, "settings"):
		return map[string]any{
			"filename":     ".env",
			"type":         "env",
			"download_url": "/api/download/.env",
			"description":  "Configuration file",
		}
	}
	return nil
}

func identitySeed(method, path string) int64 {
	h := fnv.New64a()
	h.Write([]byte(method))
	h.Write([]byte{' '})
	h.Write([]byte(path))
	return int64(h.Sum64()) // #nosec G115
}

func statusLabel(code int) string {
	switch code {
	case http.StatusUnauthorized:
		return "401"
	case http.StatusForbidden:
		return "403"
	case http.StatusNotFound:
		return "404"
	default:
		return "200"
	}
}

// pause sleeps for the tarpit delay but wakes early if the caller is gone.
func (s *mazeService) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
