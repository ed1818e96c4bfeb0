package repository

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"github.com/mathieu-neron/creatordash/internal/metrics"
)

// ErrUnauthorized means Google rejected the session credentials. Callers
// treat it as a forced logout.
var ErrUnauthorized = errors.New("upstream rejected credentials")

// ErrNotFound is returned when an upstream lookup matched nothing.
var ErrNotFound = errors.New("not found")

// UpstreamError wraps a non-success response from a Google API.
type UpstreamError struct {
	Source string
	Status int
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: upstream status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// wrapUpstream classifies a Google client error and counts it.
func wrapUpstream(source string, err error) error {
	if err == nil {
		return nil
	}
	metrics.UpstreamErrors.WithLabelValues(source).Inc()

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		if gerr.Code == http.StatusUnauthorized {
			return &UpstreamError{Source: source, Status: gerr.Code, Err: fmt.Errorf("%w: %s", ErrUnauthorized, gerr.Message)}
		}
		return &UpstreamError{Source: source, Status: gerr.Code, Err: err}
	}

	// A refresh token that Google no longer accepts surfaces here rather than
	// as a 401 from the API itself.
	var rerr *oauth2.RetrieveError
	if errors.As(err, &rerr) {
		return &UpstreamError{Source: source, Status: http.StatusUnauthorized, Err: fmt.Errorf("%w: %v", ErrUnauthorized, rerr)}
	}
	return &UpstreamError{Source: source, Err: err}
}

// IsUnauthorized reports whether err should end the session.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}
