package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mkorchagin/shortlink/internal/auth"
	"github.com/mkorchagin/shortlink/internal/models"
	"github.com/mkorchagin/shortlink/internal/repository"
)

type contextKey string

const actorKey contextKey = "actor"

// ActorResolver attaches the authenticated user to the request context when a
// valid bearer token is present. Absent or invalid tokens leave the request
// anonymous rather than rejecting it; the lifecycle operations decide what an
// anonymous actor may do.
type ActorResolver struct {
	tokens *auth.TokenManager
	users  *repository.UserRepository
}

func NewActorResolver(tokens *auth.TokenManager, users *repository.UserRepository) *ActorResolver {
	return &ActorResolver{tokens: tokens, users: users}
}

func (a *ActorResolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			next.ServeHTTP(w, r)
			return
		}

		username, err := a.tokens.Parse(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := a.users.FindByUsername(r.Context(), username)
		if err != nil || user == nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), actorKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFrom returns the authenticated user stored in ctx, or nil for an
// anonymous request.
func ActorFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(actorKey).(*models.User)
	return user
}

// WithActor returns a context carrying the given user. Primarily for tests.
func WithActor(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, actorKey, user)
}
