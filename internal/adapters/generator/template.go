package generator

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"net/http"

	"github.com/Mark-Meka/Maze-Myth-Dynamic-Honeypot/internal/core/domain"
)

// TemplateGenerator is the deterministic local fallback used when the AI
// service fails or times out. For a given (method, path) it always produces
// the same bytes, which keeps the idempotence guarantee intact even when
// every synthesis call fails.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator { return &TemplateGenerator{} }

func (t *TemplateGenerator) Generate(_ context.Context, path, method string, _ domain.AccessLevel, _ []string) ([]byte, error) {
	switch method {
	case http.MethodGet:
		return marshal(map[string]any{
			"data":    []any{},
			"message": "Success",
			"path":    path,
		})
	case http.MethodPost:
		return marshal(map[string]any{
			"id":      pathID(path),
			"status":  "created",
			"message": "Resource created successfully",
		})
	case http.MethodPut, http.MethodPatch:
		return marshal(map[string]any{
			"id":     pathID(path),
			"status": "updated",
		})
	case http.MethodDelete:
		return marshal(map[string]any{
			"status": "deleted",
		})
	default:
		return marshal(map[string]any{
			"message": "Success",
			"status":  "ok",
		})
	}
}

// pathID derives a stable fake resource identifier from the path so repeated
// fallbacks stay byte-identical.
func pathID(path string) int {
	h := fnv.New32a()
	h.Write([]byte(path)) // #nosec G104
	return 100 + int(h.Sum32()%9900)
}

func marshal(doc map[string]any) ([]byte, error) {
	return json.Marshal(doc)
}
