package shared

import "context"

// ActorAdministrator is the fallback actor when no session resolves,
// matching the identity the upstream framework uses for system calls.
const ActorAdministrator = "Administrator"

type actorContextKey struct{}

// ContextWithActor stores the acting user in context.
func ContextWithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the acting user, defaulting to Administrator.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorContextKey{}).(string)
	if actor == "" {
		return ActorAdministrator
	}
	return actor
}
