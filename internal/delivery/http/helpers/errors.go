package helpers

import (
	"log/slog"
	"net/http"

	"eventmanager/internal/domain"
)

// StatusForKind maps an error kind to its HTTP status code.
func StatusForKind(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNone:
		return http.StatusOK
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindCapacityExceeded:
		return http.StatusConflict
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindStorage:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func codeForKind(kind domain.ErrorKind) string {
	switch kind {
	case domain.KindValidation:
		return ErrCodeValidation
	case domain.KindNotFound:
		return ErrCodeNotFound
	case domain.KindConflict:
		return ErrCodeConflict
	case domain.KindCapacityExceeded:
		return ErrCodeCapacityExceeded
	case domain.KindUnauthorized:
		return ErrCodeUnauthorized
	case domain.KindStorage:
		return ErrCodeStorage
	default:
		return ErrCodeInternalError
	}
}

// WriteError writes err as a JSON error response. Expected outcomes echo the error
// message; storage, transaction and internal failures are logged and answered with a
// generic message.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	kind := domain.KindOf(err)
	status := StatusForKind(kind)
	if status >= http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", "kind", kind.String(), "error", err)
		}
		WriteJSONError(w, status, codeForKind(kind), http.StatusText(status))
		return
	}
	WriteJSONError(w, status, codeForKind(kind), err.Error())
}
