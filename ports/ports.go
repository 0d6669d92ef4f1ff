// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/pathsource/domain/path"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Clock provides the current time, injectable for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Metrics records route registration and resolution outcomes.
type Metrics interface {
	// RouteRegistered is called once per successful registration.
	RouteRegistered(template string)

	// ResolveHit records a resolution that matched a route.
	ResolveHit(template string, d time.Duration)

	// ResolveMiss records a resolution no route matched.
	ResolveMiss(d time.Duration)

	// ResolveError records a resolution that matched a route but
	// failed in key derivation or in the data source.
	ResolveError(template string, d time.Duration)
}

// -----------------------------------------------------------------------------
// Resolution Ports
// -----------------------------------------------------------------------------

// KeyFunc derives the domain key for a data source from a route match.
type KeyFunc func(m *path.Match) (any, error)

// Resolver is the type-erased retrieve surface a registered route
// delegates to. Data sources adapt themselves to this interface.
type Resolver interface {
	Retrieve(ctx context.Context, key any) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, key any) (any, error)

// Retrieve calls the wrapped function.
func (f ResolverFunc) Retrieve(ctx context.Context, key any) (any, error) {
	return f(ctx, key)
}
