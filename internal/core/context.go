package core

import "context"

// Actor identifies who is driving a request, for the change log.
type Actor struct {
	IP        string
	UserAgent string
}

type actorKey struct{}

// WithActor records the client behind ctx.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom returns the client recorded by WithActor, or the zero Actor.
func ActorFrom(ctx context.Context) Actor {
	a, _ := ctx.Value(actorKey{}).(Actor)
	return a
}

// actorAttrs returns the log attributes identifying who made a change.
func actorAttrs(ctx context.Context) []any {
	a := ActorFrom(ctx)
	var attrs []any
	if a.IP != "" {
		attrs = append(attrs, "ip", a.IP)
	}
	if a.UserAgent != "" {
		attrs = append(attrs, "user_agent", a.UserAgent)
	}
	return attrs
}
