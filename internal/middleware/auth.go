package middleware

import (
	"context"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/2beens/rerack/internal/auth"
	"github.com/2beens/rerack/internal/telemetry/tracing"
)

//go:generate mockgen -source=$GOFILE -destination=auth_mocks_test.go -package=middleware_test

type sessionResolver interface {
	Resolve(ctx context.Context, token string) (*auth.Session, error)
}

type SessionMiddlewareHandler struct {
	resolver sessionResolver
}

func NewSessionMiddlewareHandler(resolver sessionResolver) *SessionMiddlewareHandler {
	return &SessionMiddlewareHandler{
		resolver: resolver,
	}
}

// AttachSession resolves the session token header and puts the session into
// the request context. Requests without a valid token are not rejected, they
// are served in local only mode.
func (h *SessionMiddlewareHandler) AttachSession() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.session")

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				span.End()
				return
			}

			token := r.Header.Get(auth.TokenHeader)
			if token == "" || h.resolver == nil {
				span.SetStatus(codes.Ok, "anonymous")
				span.End()
				next.ServeHTTP(w, r)
				return
			}

			sess, err := h.resolver.Resolve(ctx, token)
			switch {
			case errors.Is(err, auth.ErrSessionNotFound), errors.Is(err, auth.ErrSessionExpired):
				log.Tracef("[session middleware] stale token => %s: %s", r.URL.Path, err)
				span.SetStatus(codes.Ok, "stale-token")
				span.End()
				next.ServeHTTP(w, r)
				return
			case err != nil:
				log.Errorf("[session middleware] resolve session => %s: %s", r.URL.Path, err)
				span.SetStatus(codes.Error, "resolve-session-err")
				span.RecordError(err)
				span.End()
				next.ServeHTTP(w, r)
				return
			}

			span.SetAttributes(attribute.String("user.id", sess.UserID))
			span.SetStatus(codes.Ok, "ok")
			span.End()
			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
		})
	}
}
