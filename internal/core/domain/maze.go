package domain

import (
	"strings"
	"time"
)

// EndpointRecord is the canonical synthesized response for one
// (method, normalized path) identity. Body and AccessLevel are immutable once
// the record is first persisted; only HitCount changes afterwards.
type EndpointRecord struct {
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	AccessLevel AccessLevel `json:"access_level"`
	Status      int         `json:"status"`
	Body        []byte      `json:"body"`
	Breadcrumbs []string    `json:"breadcrumbs,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	HitCount    int64       `json:"hit_count"`
}

// MazeRequest carries everything the maze needs to decide a response.
type MazeRequest struct {
	Method    string
	Path      string
	RawToken  string // Authorization header value, possibly empty or garbage
	ClientIP  string
	UserAgent string
}

// Response is what the maze hands back to the transport layer. Delay is the
// tarpit penalty already applied by the engine; it is reported so the
// transport can surface it in logs.
type Response struct {
	Status int
	Body   []byte
	Delay  time.Duration
}

// StoreStats summarizes store contents for the health endpoint.
type StoreStats struct {
	Endpoints        int64 `json:"total_endpoints"`
	Beacons          int64 `json:"total_beacons"`
	ActivatedBeacons int64 `json:"activated_beacons"`
}

// NormalizePath collapses the path variants attackers produce into the
// identity form used by the store: leading slash, no trailing slash
// (except root), no query string.
func NormalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p[0] != '/' {
		p = "/" + p
	}
	for len(p) > 1 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return p
}
