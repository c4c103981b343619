package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

// Repository implements portal.Repository using in-memory maps. A single
// RWMutex serializes writers across all tables so reference checks observe
// a consistent snapshot.
type Repository struct {
	mu     sync.RWMutex
	closed bool

	accounts       *table[portal.Account]
	departments    *table[portal.Department]
	courses        *table[portal.Course]
	enrollments    *table[portal.Enrollment]
	students       *table[portal.StudentProfile]
	faculty        *table[portal.FacultyProfile]
	administrators *table[portal.AdministratorProfile]
}

// NewRepository creates a new in-memory repository
func NewRepository() *Repository {
	r := &Repository{}

	r.accounts = newTable(r, "Account", portal.AccountDescriptor.Key,
		func(a *portal.Account, id int64) { a.ID = id })
	r.accounts.checks = append(r.accounts.checks, validAccount)
	r.accounts.indexes = []*uniqueIndex[portal.Account]{
		newUniqueIndex("username", func(a *portal.Account) string { return a.Username }),
		newUniqueIndex("email", func(a *portal.Account) string { return a.Email }),
	}

	r.departments = newTable(r, "Department", portal.DepartmentDescriptor.Key,
		func(d *portal.Department, id int64) { d.ID = id })

	r.courses = newTable(r, "Course", portal.CourseDescriptor.Key,
		func(c *portal.Course, id int64) { c.ID = id })
	r.courses.checks = append(r.courses.checks, func(c *portal.Course) error {
		return optionalRef(r.departments, "Department", c.DepartmentID)
	})

	r.students = newTable(r, "StudentProfile", portal.StudentProfileDescriptor.Key, nil)
	r.students.sanitize = func(p *portal.StudentProfile) { p.Account = nil }
	r.students.checks = append(r.students.checks,
		func(p *portal.StudentProfile) error { return requiredRef(r.accounts, "Account", p.UserID) },
		func(p *portal.StudentProfile) error { return optionalRef(r.departments, "Department", p.DepartmentID) },
	)

	r.faculty = newTable(r, "FacultyProfile", portal.FacultyProfileDescriptor.Key, nil)
	r.faculty.sanitize = func(p *portal.FacultyProfile) { p.Account = nil }
	r.faculty.checks = append(r.faculty.checks,
		func(p *portal.FacultyProfile) error { return requiredRef(r.accounts, "Account", p.UserID) },
		func(p *portal.FacultyProfile) error { return optionalRef(r.departments, "Department", p.DepartmentID) },
	)

	r.administrators = newTable(r, "AdministratorProfile", portal.AdministratorProfileDescriptor.Key, nil)
	r.administrators.sanitize = func(p *portal.AdministratorProfile) { p.Account = nil }
	r.administrators.checks = append(r.administrators.checks,
		func(p *portal.AdministratorProfile) error { return requiredRef(r.accounts, "Account", p.UserID) },
		func(p *portal.AdministratorProfile) error {
			return optionalRef(r.departments, "Department", p.DepartmentID)
		},
	)

	r.enrollments = newTable(r, "Enrollment", portal.EnrollmentDescriptor.Key,
		func(e *portal.Enrollment, id int64) { e.ID = id })
	r.enrollments.checks = append(r.enrollments.checks,
		func(e *portal.Enrollment) error { return requiredRef(r.students, "StudentProfile", e.StudentID) },
		func(e *portal.Enrollment) error { return requiredRef(r.courses, "Course", e.CourseID) },
	)

	return r
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
	r.mu.RLock()
	defer r.mu.RUnlock()

	status := portal.HealthStatusHealthy
	message := "In-memory repository is operational"
	details := map[string]interface{}{
		"closed": r.closed,
	}
	if r.closed {
		status = portal.HealthStatusUnhealthy
		message = "Repository is closed"
	} else {
		details["accounts_count"] = len(r.accounts.rows)
		details["departments_count"] = len(r.departments.rows)
		details["courses_count"] = len(r.courses.rows)
		details["enrollments_count"] = len(r.enrollments.rows)
		details["student_profiles_count"] = len(r.students.rows)
		details["faculty_profiles_count"] = len(r.faculty.rows)
		details["administrator_profiles_count"] = len(r.administrators.rows)
	}

	return portal.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: time.Now(),
	}
}

// Close releases all data; later calls fail with a database error.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.accounts.reset()
	r.departments.reset()
	r.courses.reset()
	r.enrollments.reset()
	r.students.reset()
	r.faculty.reset()
	r.administrators.reset()
	r.closed = true

	return nil
}

func errClosed() error {
	return entity.NewDatabaseError("REPO_CLOSED", "repository is closed", nil)
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
