package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded means the database is up but AI features answer with fallbacks.
	Degraded Status = "degraded"
	// Unhealthy means the database is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckDegraded indicates a component serving fallbacks.
	CheckDegraded CheckResult = "degraded"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// DefaultTimeout bounds the whole check.
const DefaultTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
}

// Service coordinates health checks.
type Service struct {
	db        DBPinger
	provider  ProviderChecker
	embedding DegradedReporter
	timeout   time.Duration
}

// New creates a Service. provider and embedding can be nil.
func New(db DBPinger, provider ProviderChecker, embedding DegradedReporter) *Service {
	return &Service{db: db, provider: provider, embedding: embedding, timeout: DefaultTimeout}
}

// Check runs health checks against all components.
// A database failure makes the report unhealthy; AI failures only degrade it.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.provider != nil {
		if err := s.provider.HealthCheck(ctx); err != nil {
			checks["ai"] = CheckError
		} else {
			checks["ai"] = CheckOK
		}
	}

	if s.embedding != nil {
		if s.embedding.Degraded() {
			checks["embedding"] = CheckDegraded
		} else {
			checks["embedding"] = CheckOK
		}
	}

	status := Healthy
	for k, v := range checks {
		if v == CheckOK {
			continue
		}
		if k == "database" {
			status = Unhealthy
			break
		}
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
