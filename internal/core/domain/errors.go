package domain

import (
	"errors"
	"fmt"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrFeedbackNotFound = errors.New("feedback report not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTemporary        = errors.New("temporary failure")

	// ErrPDFEncrypted signals a password-protected PDF with no password
	// supplied; callers can re-prompt instead of treating it as a hard failure.
	ErrPDFEncrypted = errors.New("PDF_ENCRYPTED")
	// ErrDecryptionFailed signals a wrong password for an encrypted PDF.
	ErrDecryptionFailed = errors.New("DECRYPTION_FAILED")
	// ErrExtractionFailed is terminal for a request: every extraction path,
	// including the VLM fallback, has been exhausted.
	ErrExtractionFailed = errors.New("extraction failed")
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
