package extractor

import (
	"context"
	"testing"

	"github.com/kirillkom/clausemind/internal/core/domain"
)

type stubExtractor struct {
	text  string
	calls int
}

func (s *stubExtractor) Extract(context.Context, *domain.Document) (string, error) {
	s.calls++
	return s.text, nil
}

func TestRegistryRoutesByMimeType(t *testing.T) {
	pdfEx := &stubExtractor{text: "pdf text"}
	plainEx := &stubExtractor{text: "plain text"}
	reg := NewRegistry(plainEx)
	reg.Register("application/pdf", pdfEx)

	text, err := reg.Extract(context.Background(), &domain.Document{
		MimeType:    "application/pdf; charset=binary",
		StoragePath: "doc.bin",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "pdf text" || pdfEx.calls != 1 {
		t.Fatalf("expected pdf extractor, got %q (calls=%d)", text, pdfEx.calls)
	}
}

func TestRegistryFallsBackToExtension(t *testing.T) {
	pdfEx := &stubExtractor{text: "pdf text"}
	reg := NewRegistry(&stubExtractor{text: "plain"})
	reg.Register("application/pdf", pdfEx)

	text, err := reg.Extract(context.Background(), &domain.Document{
		MimeType:    "application/octet-stream",
		StoragePath: "abc123_policy.pdf",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "pdf text" {
		t.Fatalf("expected extension routing, got %q", text)
	}
}

func TestRegistryUsesFallbackForUnknownFormats(t *testing.T) {
	plainEx := &stubExtractor{text: "plain"}
	reg := NewRegistry(plainEx)

	text, err := reg.Extract(context.Background(), &domain.Document{
		MimeType:    "application/x-unknown",
		StoragePath: "doc.dat",
	})
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if text != "plain" || plainEx.calls != 1 {
		t.Fatalf("expected fallback extractor, got %q", text)
	}
}

func TestRegistryRejectsWhenNoFallback(t *testing.T) {
	reg := NewRegistry(nil)

	_, err := reg.Extract(context.Background(), &domain.Document{
		MimeType:    "application/x-unknown",
		StoragePath: "doc.dat",
	})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
