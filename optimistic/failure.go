package optimistic

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/osr-alliance/backend-lib-leadflow/apierr"
)

type Kind string

const (
	KindPermission Kind = "permission"
	KindSession    Kind = "session"
	KindNetwork    Kind = "network"
	KindValidation Kind = "validation"
	KindUnknown    Kind = "unknown"
)

var messages = map[Kind]string{
	KindPermission: "You don't have access to this lead",
	KindSession:    "Session expired – please log in again",
	KindNetwork:    "Network error – please check your connection",
	KindValidation: "Invalid data – please check your input",
	KindUnknown:    "Something went wrong. Please try again.",
}

// Failure is a rolled back mutation. Message is safe to show a user; the backend error is only reachable
// through Unwrap.
type Failure struct {
	Kind    Kind
	Message string
	Err     error
}

func (f *Failure) Error() string {
	return f.Message
}

func (f *Failure) Unwrap() error {
	return f.Err
}

func Classify(err error) *Failure {
	k := classify(err)
	return &Failure{Kind: k, Message: messages[k], Err: err}
}

// raw backend text is matched last, for errors that arrive without a typed cause
var fallbacks = []struct {
	kind    Kind
	needles []string
}{
	{KindPermission, []string{"row-level security", "permission denied", "forbidden"}},
	{KindSession, []string{"jwt", "token", "session expired"}},
	{KindNetwork, []string{"network", "fetch", "connection refused", "connection reset", "no such host"}},
	{KindValidation, []string{"violates", "invalid input"}},
}

func classify(err error) Kind {
	var f *Failure
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &f):
		return f.Kind
	case errors.Is(err, apierr.ErrPermissionDenied):
		return KindPermission
	case errors.Is(err, apierr.ErrSessionExpired), errors.Is(err, apierr.ErrUnauthenticated):
		return KindSession
	case errors.Is(err, apierr.ErrValidation), errors.Is(err, apierr.ErrConflict):
		return KindValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindNetwork
	}

	var netErr net.Error
	var urlErr *url.Error
	if errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return KindNetwork
	}

	msg := strings.ToLower(err.Error())
	for _, fb := range fallbacks {
		for _, n := range fb.needles {
			if strings.Contains(msg, n) {
				return fb.kind
			}
		}
	}
	return KindUnknown
}
