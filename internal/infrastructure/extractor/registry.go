package extractor

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/kirillkom/clausemind/internal/core/domain"
	"github.com/kirillkom/clausemind/internal/core/ports"
)

// Registry routes a document to the extractor for its format, by declared
// MIME type first and by storage-path extension as a fallback.
type Registry struct {
	byMime   map[string]ports.TextExtractor
	fallback ports.TextExtractor
}

func NewRegistry(fallback ports.TextExtractor) *Registry {
	return &Registry{
		byMime:   make(map[string]ports.TextExtractor),
		fallback: fallback,
	}
}

// Register binds a MIME type (without parameters) to an extractor.
func (r *Registry) Register(mimeType string, ex ports.TextExtractor) {
	r.byMime[strings.ToLower(mimeType)] = ex
}

func (r *Registry) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	ex := r.resolve(doc)
	if ex == nil {
		return "", domain.WrapError(
			domain.ErrInvalidInput,
			"resolve extractor",
			fmt.Errorf("unsupported document format %q", doc.MimeType),
		)
	}
	return ex.Extract(ctx, doc)
}

func (r *Registry) resolve(doc *domain.Document) ports.TextExtractor {
	if doc.MimeType != "" {
		mediaType, _, err := mime.ParseMediaType(doc.MimeType)
		if err == nil {
			if ex, ok := r.byMime[strings.ToLower(mediaType)]; ok {
				return ex
			}
		}
	}
	if ext := strings.ToLower(filepath.Ext(doc.StoragePath)); ext != "" {
		if ex, ok := r.byMime[mimeForExtension(ext)]; ok {
			return ex
		}
	}
	return r.fallback
}

func mimeForExtension(ext string) string {
	switch ext {
	case ".pdf":
		return "application/pdf"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".txt", ".md":
		return "text/plain"
	default:
		return ""
	}
}
