// Package authz implements request actors and the dual-factor privileged
// policy: an action is privileged only when the actor holds the required
// role AND matches the allow-listed user id.
package authz

import "context"

// Actor identifies the authenticated user performing a request.
type Actor struct {
	ID   int64
	Role string
}

// Zero reports whether the actor is unauthenticated.
func (a Actor) Zero() bool {
	return a.ID == 0
}

// Policy is an explicit role+identity rule evaluated per action.
// Role alone is insufficient; identity alone is insufficient.
type Policy struct {
	RequiredRole   string
	RequiredUserID int64
}

// Allows reports whether the actor satisfies both factors.
func (p Policy) Allows(a Actor) bool {
	if p.RequiredRole == "" || p.RequiredUserID == 0 {
		return false
	}
	return a.Role == p.RequiredRole && a.ID == p.RequiredUserID
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

// ActorFromContext extracts the actor from context.
func ActorFromContext(ctx context.Context) Actor {
	a, _ := ctx.Value(actorContextKey{}).(Actor)
	return a
}
