package portal

import (
	"context"
	"time"

	"github.com/songzhibin97/academia/pkg/entity"
)

// Repository is a backing store holding every portal entity type.
type Repository interface {
	// Health returns the health status of the repository
	Health(ctx context.Context) HealthStatus

	// Close closes the repository connection and releases resources
	Close() error

	Accounts() AccountAdapter
	Departments() entity.Adapter[int64, Department]
	Courses() entity.Adapter[int64, Course]
	Enrollments() entity.Adapter[int64, Enrollment]
	StudentProfiles() entity.Adapter[int64, StudentProfile]
	FacultyProfiles() entity.Adapter[int64, FacultyProfile]
	AdministratorProfiles() entity.Adapter[int64, AdministratorProfile]
}

// AccountAdapter extends the generic adapter with the login lookup.
type AccountAdapter interface {
	entity.Adapter[int64, Account]

	// SelectByUsernameOrEmail returns the account whose username or email
	// equals identifier exactly; ok is false when none does.
	SelectByUsernameOrEmail(ctx context.Context, identifier string) (*Account, bool, error)
}

// HealthStatus represents the health status of a repository
type HealthStatus struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)
