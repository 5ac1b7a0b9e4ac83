package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	actormodels "dana/internal/actor/models"
	"dana/internal/identity"
	"dana/internal/transport/http/shared"
	dErrors "dana/pkg/domain-errors"
	"dana/pkg/requestcontext"
)

// ActorResolver maps a verified external identity to the local actor,
// creating it on first authentication.
type ActorResolver interface {
	EnsureForIdentity(ctx context.Context, ident identity.Identity) (*actormodels.Actor, error)
}

type (
	contextKeyActor    struct{}
	contextKeyIdentity struct{}
)

// IdentityFrom retrieves the verified external identity from the context.
func IdentityFrom(ctx context.Context) identity.Identity {
	if ident, ok := ctx.Value(contextKeyIdentity{}).(identity.Identity); ok {
		return ident
	}
	return identity.Identity{}
}

// WithIdentity injects a verified identity into a context.
func WithIdentity(ctx context.Context, ident identity.Identity) context.Context {
	return context.WithValue(ctx, contextKeyIdentity{}, ident)
}

// ActorFrom retrieves the authenticated actor from the context. Nil when the
// request did not pass RequireAuth.
func ActorFrom(ctx context.Context) *actormodels.Actor {
	if actor, ok := ctx.Value(contextKeyActor{}).(*actormodels.Actor); ok {
		return actor
	}
	return nil
}

// WithActor injects an actor into a context. Useful for handler tests that
// don't run the full middleware chain.
func WithActor(ctx context.Context, actor *actormodels.Actor) context.Context {
	ctx = context.WithValue(ctx, contextKeyActor{}, actor)
	return requestcontext.WithActorID(ctx, actor.ID)
}

// RequireAuth verifies the bearer token and resolves the local actor. The
// actor lands in the request context for handlers and services.
func RequireAuth(verifier identity.Verifier, actors ActorResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			ident, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				shared.WriteError(w, err)
				return
			}

			actor, err := actors.EnsureForIdentity(ctx, ident)
			if err != nil {
				logger.ErrorContext(ctx, "failed to resolve actor",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "failed to resolve actor"))
				return
			}

			ctx = WithIdentity(ctx, ident)
			next.ServeHTTP(w, r.WithContext(WithActor(ctx, actor)))
		})
	}
}
