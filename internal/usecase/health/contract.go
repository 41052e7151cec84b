package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks that the active AI provider answers.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// DegradedReporter exposes the embedding decorator's degraded flag.
type DegradedReporter interface {
	Degraded() bool
}
