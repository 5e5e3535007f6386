package runs

import (
	"errors"
	"net/http"

	"github.com/gaslens/gaslens/analysis"
	"github.com/gaslens/gaslens/pkg/storage"
)

// Domain errors for run operations.
var (
	ErrNotFound       = errors.New("run not found")
	ErrDuplicate      = errors.New("run already exists")
	ErrInvalidRequest = errors.New("invalid run request")
	ErrReportNotReady = errors.New("run has not finished")
)

// MapHTTPStatus maps run domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, ErrReportNotReady):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, analysis.ErrChainsRequired),
		errors.Is(err, analysis.ErrInvalidTimeframe):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
