package services

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

// prefixRule binds a path prefix to the access level required to view
// content under it.
type prefixRule struct {
	prefix string
	level  domain.AccessLevel
}

// Classifier maps (path, method, token) to an access level using a
// declarative longest-prefix table. All methods are pure and safe to call
// concurrently; the stateful burst detector lives in BurstDetector.
type Classifier struct {
	rules []prefixRule
}

// DefaultRules mirrors the maze's advertised API surface: internal tooling,
// a v2 admin area, an authenticated v1 area, and public auth endpoints.
func DefaultRules() []prefixRule {
	return []prefixRule{
		{"/internal", domain.LevelInternal},
		{"/api/v2/admin", domain.LevelAdmin},
		{"/api/v1/auth", domain.LevelPublic},
		{"/api/v1", domain.LevelUser},
	}
}

func NewClassifier(rules []prefixRule) *Classifier {
	if rules == nil {
		rules = DefaultRules()
	}
	sorted := make([]prefixRule, len(rules))
	copy(sorted, rules)
	// Longest prefix first so the first match is the winning match.
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].prefix) > len(sorted[j].prefix)
	})
	return &Classifier{rules: sorted}
}

// RequiredLevel returns the level a caller must hold to see content at path.
// Unmatched paths are public.
func (c *Classifier) RequiredLevel(path string) domain.AccessLevel {
	path = domain.NormalizePath(path)
	for _, r := range c.rules {
		if path == r.prefix || strings.HasPrefix(path, r.prefix+"/") {
			return r.level
		}
	}
	return domain.LevelPublic
}

// Classify computes the access level that applies to the request. Rules in
// order, first match wins:
//
//  1. internal path and token >= admin  -> internal
//  2. admin path and token >= admin     -> admin
//  3. authenticated path and token >= user -> user
//  4. otherwise public; an invalid, missing, or malformed token degrades
//     silently to public and is never an error.
func (c *Classifier) Classify(path, method string, tok domain.DecoyToken) domain.AccessLevel {
	switch c.RequiredLevel(path) {
	case domain.LevelInternal:
		if tok.Level >= domain.LevelAdmin {
			return domain.LevelInternal
		}
	case domain.LevelAdmin:
		if tok.Level >= domain.LevelAdmin {
			return domain.LevelAdmin
		}
	case domain.LevelUser:
		if tok.Level >= domain.LevelUser {
			return domain.LevelUser
		}
	}
	return domain.LevelPublic
}

// scannerSignatures are user-agent substrings of common directory-busting
// and scanning tools.
var scannerSignatures = []string{
	"dirb", "dirbuster", "gobuster", "wfuzz", "ffuf",
	"feroxbuster", "dirsearch", "nikto", "burpsuite",
	"python-requests", "go-http-client", "curl/", "masscan", "nuclei",
}

// wordlistMarkers are path fragments that show up in scanner wordlists but
// not in organic API traffic.
var wordlistMarkers = []string{
	"admin.php", "login.php", "index.php", "test.php",
	"admin.aspx", "login.aspx", "default.aspx",
	"wp-admin", "phpmyadmin", "administrator/",
	"backup/", "config.php", "db.php", "database.php",
	".git", ".env", ".htaccess", "web.config",
}

// SuspectScanner reports whether the request smells like an automated
// bulk-probing tool. Pure; rate-based detection is BurstDetector's job.
func (c *Classifier) SuspectScanner(userAgent, path string) bool {
	ua := strings.ToLower(userAgent)
	for _, sig := range scannerSignatures {
		if strings.Contains(ua, sig) {
			return true
		}
	}
	p := strings.ToLower(path)
	for _, marker := range wordlistMarkers {
		if strings.Contains(p, marker) {
			return true
		}
	}
	return false
}

// BurstDetector flags sources whose request rate exceeds a per-IP token
// bucket. A flagged source earns the tarpit delay; this is a policy knob,
// not a security control.
type BurstDetector struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	rate    float64 // tokens per second
	burst   int     // max tokens
	now     func() time.Time
}

type bucket struct {
	tokens float64
	last   time.Time
}

func NewBurstDetector(rate float64, burst int) *BurstDetector {
	return &BurstDetector{
		buckets: make(map[string]*bucket),
		rate:    rate,
		burst:   burst,
		now:     time.Now,
	}
}

// Observe consumes one token for ip and reports whether the source is
// bursting (bucket exhausted).
func (d *BurstDetector) Observe(ip string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, exists := d.buckets[ip]
	if !exists {
		b = &bucket{tokens: float64(d.burst), last: d.now()}
		d.buckets[ip] = b
	}

	now := d.now()
	elapsed := now.Sub(b.last).Seconds()
	b.last = now

	b.tokens += elapsed * d.rate
	if b.tokens > float64(d.burst) {
		b.tokens = float64(d.burst)
	}

	if b.tokens >= 1 {
		b.tokens--
		return false
	}
	return true
}

// Cleanup drops buckets idle for over ten minutes to bound memory.
func (d *BurstDetector) Cleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for ip, b := range d.buckets {
		if now.Sub(b.last) > 10*time.Minute {
			delete(d.buckets, ip)
		}
	}
}
