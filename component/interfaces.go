package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a lifecycle-managed piece of infrastructure: the database,
// redis, the expiry sweeper, the HTTP server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a one-line summary logged at startup.
type Description struct {
	// Name is the display name. Falls back to Component.Name().
	Name string
	// Type categorizes the component: "database", "server", "redis", ...
	Type string
	// Details e.g. "localhost:6379 db=0 pool=10".
	Details string
}

// Describable is optionally implemented by components that report their
// configuration in the startup summary.
type Describable interface {
	Describe() Description
}
