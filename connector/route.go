package connector

import "context"

type routeKey struct{}

// WithDatabase returns a context routing all work derived from it to the
// named logical database. The override is visible only to the unit of work
// holding the returned context and to work it delegates that context to;
// concurrently executing units keep their own route. Dropping back to the
// parent context restores the previously visible route.
func WithDatabase(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, routeKey{}, name)
}

// RouteFromContext returns the logical database override carried by ctx.
func RouteFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(routeKey{}).(string)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}
