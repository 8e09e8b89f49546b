package httpadapter

import (
	"net/http"

	"github.com/kirillkom/bank-statement-extractor/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case domain.IsKind(err, domain.ErrTemplateNotFound),
		domain.IsKind(err, domain.ErrFeedbackNotFound):
		return http.StatusNotFound
	case domain.IsKind(err, domain.ErrPDFEncrypted),
		domain.IsKind(err, domain.ErrDecryptionFailed):
		return http.StatusUnprocessableEntity
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
