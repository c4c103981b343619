package portal

import (
	"time"
)

// Account represents a registered portal user. Profiles borrow its ID.
type Account struct {
	ID       int64  `json:"id" db:"id"`
	Name     string `json:"name" db:"name"`
	Username string `json:"username" db:"username"`
	Email    string `json:"email" db:"email"`
	Password string `json:"-" db:"password"` // bcrypt hash, never included in JSON responses
	Role     Role   `json:"role" db:"role"`
}

// Role represents the role of an account
type Role string

const (
	RoleStudent       Role = "STUDENT"
	RoleFacultyMember Role = "FACULTY_MEMBER"
	RoleAdministrator Role = "ADMINISTRATOR"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFacultyMember, RoleAdministrator:
		return true
	}
	return false
}

// Authority returns the granted authority string, e.g. "ROLE_STUDENT".
func (r Role) Authority() string {
	return "ROLE_" + string(r)
}

// Department represents an academic department
type Department struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Course represents a course offered by a department
type Course struct {
	ID           int64  `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	Description  string `json:"description" db:"description"`
	Credits      int    `json:"credits" db:"credits"`
	DepartmentID int64  `json:"department_id,omitempty" db:"department_id"`
}

// Enrollment links a student profile to a course
type Enrollment struct {
	ID         int64     `json:"id" db:"id"`
	StudentID  int64     `json:"student_id" db:"student_id"`
	CourseID   int64     `json:"course_id" db:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"`
}

// Profile is implemented by the role-specific profiles, which share their
// primary key with the owning account.
type Profile interface {
	OwnerID() int64
	AttachAccount(account *Account)
}

// StudentProfile holds student-specific data keyed by the owning account's ID.
type StudentProfile struct {
	UserID       int64    `json:"user_id" db:"user_id"`
	Account      *Account `json:"user,omitempty" db:"-"`
	Photo        string   `json:"photo,omitempty" db:"photo"`
	Year         int      `json:"year,omitempty" db:"year"`
	DepartmentID int64    `json:"department_id,omitempty" db:"department_id"`
}

func (p *StudentProfile) OwnerID() int64                 { return p.UserID }
func (p *StudentProfile) AttachAccount(account *Account) { p.Account = account }

// FacultyProfile holds faculty-specific data keyed by the owning account's ID.
type FacultyProfile struct {
	UserID       int64    `json:"user_id" db:"user_id"`
	Account      *Account `json:"user,omitempty" db:"-"`
	Photo        string   `json:"photo,omitempty" db:"photo"`
	DepartmentID int64    `json:"department_id,omitempty" db:"department_id"`
	OfficeHours  string   `json:"office_hours,omitempty" db:"office_hours"`
}

func (p *FacultyProfile) OwnerID() int64                 { return p.UserID }
func (p *FacultyProfile) AttachAccount(account *Account) { p.Account = account }

// AdministratorProfile holds administrator-specific data keyed by the owning account's ID.
type AdministratorProfile struct {
	UserID       int64    `json:"user_id" db:"user_id"`
	Account      *Account `json:"user,omitempty" db:"-"`
	Photo        string   `json:"photo,omitempty" db:"photo"`
	DepartmentID int64    `json:"department_id,omitempty" db:"department_id"`
}

func (p *AdministratorProfile) OwnerID() int64                 { return p.UserID }
func (p *AdministratorProfile) AttachAccount(account *Account) { p.Account = account }
