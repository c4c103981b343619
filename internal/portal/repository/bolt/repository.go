// Package bolt stores portal entities in a single bbolt file, one bucket per
// entity type. Values are JSON documents keyed by 8-byte big-endian IDs.
package bolt

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
	bolt "go.etcd.io/bbolt"
)

// Config holds the configuration for the bbolt repository
type Config struct {
	Path    string        `yaml:"path" json:"path"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// DefaultConfig returns a default bbolt configuration
func DefaultConfig() *Config {
	return &Config{
		Path:    "academia.db",
		Timeout: time.Second,
	}
}

// Repository implements portal.Repository on top of bbolt. bbolt allows one
// writer at a time, so reference and uniqueness checks run inside the same
// transaction as the write.
type Repository struct {
	db   *bolt.DB
	path string

	accounts       *bucket[portal.Account]
	departments    *bucket[portal.Department]
	courses        *bucket[portal.Course]
	enrollments    *bucket[portal.Enrollment]
	students       *bucket[portal.StudentProfile]
	faculty        *bucket[portal.FacultyProfile]
	administrators *bucket[portal.AdministratorProfile]
}

// NewRepository opens (or creates) the database file and its buckets.
func NewRepository(config *Config) (*Repository, error) {
	if config == nil {
		config = DefaultConfig()
	}

	db, err := bolt.Open(config.Path, 0o600, &bolt.Options{Timeout: config.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open bbolt store at %s: %w", config.Path, err)
	}

	r := &Repository{db: db, path: config.Path}
	r.accounts = newBucket(r, "Account", "accounts", portal.AccountDescriptor.Key,
		func(a *portal.Account, id int64) { a.ID = id })
	r.accounts.encode = encodeAccount
	r.accounts.decode = decodeAccount
	r.accounts.checks = append(r.accounts.checks, func(_ *bolt.Tx, a *portal.Account) error { return validAccount(a) })
	r.accounts.uniques = []unique[portal.Account]{
		{column: "username", field: func(a *portal.Account) string { return a.Username }},
		{column: "email", field: func(a *portal.Account) string { return a.Email }},
	}

	r.departments = newBucket(r, "Department", "departments", portal.DepartmentDescriptor.Key,
		func(d *portal.Department, id int64) { d.ID = id })

	r.courses = newBucket(r, "Course", "courses", portal.CourseDescriptor.Key,
		func(c *portal.Course, id int64) { c.ID = id })
	r.courses.checks = append(r.courses.checks, func(tx *bolt.Tx, c *portal.Course) error {
		return optionalRef(tx, r.departments, c.DepartmentID)
	})

	r.students = newBucket(r, "StudentProfile", "student_profiles", portal.StudentProfileDescriptor.Key, nil)
	r.students.sanitize = func(p *portal.StudentProfile) { p.Account = nil }
	r.students.checks = append(r.students.checks,
		func(tx *bolt.Tx, p *portal.StudentProfile) error { return requiredRef(tx, r.accounts, p.UserID) },
		func(tx *bolt.Tx, p *portal.StudentProfile) error {
			return optionalRef(tx, r.departments, p.DepartmentID)
		},
	)

	r.faculty = newBucket(r, "FacultyProfile", "faculty_profiles", portal.FacultyProfileDescriptor.Key, nil)
	r.faculty.sanitize = func(p *portal.FacultyProfile) { p.Account = nil }
	r.faculty.checks = append(r.faculty.checks,
		func(tx *bolt.Tx, p *portal.FacultyProfile) error { return requiredRef(tx, r.accounts, p.UserID) },
		func(tx *bolt.Tx, p *portal.FacultyProfile) error {
			return optionalRef(tx, r.departments, p.DepartmentID)
		},
	)

	r.administrators = newBucket(r, "AdministratorProfile", "administrator_profiles",
		portal.AdministratorProfileDescriptor.Key, nil)
	r.administrators.sanitize = func(p *portal.AdministratorProfile) { p.Account = nil }
	r.administrators.checks = append(r.administrators.checks,
		func(tx *bolt.Tx, p *portal.AdministratorProfile) error { return requiredRef(tx, r.accounts, p.UserID) },
		func(tx *bolt.Tx, p *portal.AdministratorProfile) error {
			return optionalRef(tx, r.departments, p.DepartmentID)
		},
	)

	r.enrollments = newBucket(r, "Enrollment", "enrollments", portal.EnrollmentDescriptor.Key,
		func(e *portal.Enrollment, id int64) { e.ID = id })
	r.enrollments.checks = append(r.enrollments.checks,
		func(tx *bolt.Tx, e *portal.Enrollment) error { return requiredRef(tx, r.students, e.StudentID) },
		func(tx *bolt.Tx, e *portal.Enrollment) error { return requiredRef(tx, r.courses, e.CourseID) },
	)

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range r.bucketNames() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return r, nil
}

func (r *Repository) bucketNames() []string {
	return []string{
		r.accounts.name, r.departments.name, r.courses.name, r.enrollments.name,
		r.students.name, r.faculty.name, r.administrators.name,
	}
}

func (r *Repository) Accounts() portal.AccountAdapter { return &accountAdapter{r.accounts} }

func (r *Repository) Departments() entity.Adapter[int64, portal.Department] { return r.departments }

func (r *Repository) Courses() entity.Adapter[int64, portal.Course] { return r.courses }

func (r *Repository) Enrollments() entity.Adapter[int64, portal.Enrollment] { return r.enrollments }

func (r *Repository) StudentProfiles() entity.Adapter[int64, portal.StudentProfile] {
	return r.students
}

func (r *Repository) FacultyProfiles() entity.Adapter[int64, portal.FacultyProfile] {
	return r.faculty
}

func (r *Repository) AdministratorProfiles() entity.Adapter[int64, portal.AdministratorProfile] {
	return r.administrators
}

// Health returns the health status of the repository
func (r *Repository) Health(ctx context.Context) portal.HealthStatus {
	details := map[string]interface{}{
		"path": r.path,
	}

	err := r.db.View(func(tx *bolt.Tx) error {
		for _, name := range r.bucketNames() {
			details[name+"_count"] = tx.Bucket([]byte(name)).Stats().KeyN
		}
		return nil
	})
	if err != nil {
		return portal.HealthStatus{
			Status:    portal.HealthStatusUnhealthy,
			Message:   fmt.Sprintf("bbolt store unavailable: %v", err),
			Details:   details,
			Timestamp: time.Now(),
		}
	}

	return portal.HealthStatus{
		Status:    portal.HealthStatusHealthy,
		Message:   "bbolt repository is operational",
		Details:   details,
		Timestamp: time.Now(),
	}
}

// Close closes the database file
func (r *Repository) Close() error {
	return r.db.Close()
}

// classify wraps storage failures; entity errors raised by checks pass through.
func classify(entityName, bucketName, op string, err error) error {
	var ee *entity.Error
	if errors.As(err, &ee) {
		return ee
	}
	if errors.Is(err, bolt.ErrDatabaseNotOpen) {
		return entity.NewDatabaseError("REPO_CLOSED", "repository is closed", err)
	}
	return entity.NewDatabaseError(fmt.Sprintf("%s_%s_FAILED", strings.ToUpper(bucketName), op),
		fmt.Sprintf("failed to %s %s", strings.ToLower(op), entityName), err)
}

func validAccount(a *portal.Account) error {
	if a.Username == "" {
		return entity.NewInvalidInputError("INVALID_ACCOUNT_USERNAME", "account username cannot be empty")
	}
	if a.Email == "" {
		return entity.NewInvalidInputError("INVALID_ACCOUNT_EMAIL", "account email cannot be empty")
	}
	if !a.Role.Valid() {
		return entity.NewInvalidInputError("INVALID_ACCOUNT_ROLE", fmt.Sprintf("invalid account role: %q", a.Role))
	}
	return nil
}
