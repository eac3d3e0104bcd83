package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration    = errors.New("invalid configuration")
	ErrInvalidInput            = errors.New("invalid input")
	ErrDocumentNotFound        = errors.New("document not found")
	ErrEmbeddingUnavailable    = errors.New("embedding unavailable")
	ErrReasoningUnavailable    = errors.New("reasoning unavailable")
	ErrIndexCorrupted          = errors.New("index corrupted")
	ErrUnsupportedIndexVersion = errors.New("unsupported index version")
	ErrDecisionUnparseable     = errors.New("decision unparseable")
	ErrTemporary               = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
