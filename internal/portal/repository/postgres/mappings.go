package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/songzhibin97/academia/pkg/portal"
)

var accountMapping = mapping[portal.Account]{
	entity:    "Account",
	table:     "accounts",
	keyColumn: "id",
	generated: true,
	columns:   []string{"name", "username", "email", "password", "role"},
	key:       func(a *portal.Account) int64 { return a.ID },
	values: func(a *portal.Account) []interface{} {
		return []interface{}{a.Name, a.Username, a.Email, a.Password, string(a.Role)}
	},
	scan: func(s scanner) (*portal.Account, error) {
		var a portal.Account
		var role string
		if err := s.Scan(&a.ID, &a.Name, &a.Username, &a.Email, &a.Password, &role); err != nil {
			return nil, err
		}
		a.Role = portal.Role(role)
		return &a, nil
	},
}

var departmentMapping = mapping[portal.Department]{
	entity:    "Department",
	table:     "departments",
	keyColumn: "id",
	generated: true,
	columns:   []string{"name"},
	key:       func(d *portal.Department) int64 { return d.ID },
	values:    func(d *portal.Department) []interface{} { return []interface{}{d.Name} },
	scan: func(s scanner) (*portal.Department, error) {
		var d portal.Department
		if err := s.Scan(&d.ID, &d.Name); err != nil {
			return nil, err
		}
		return &d, nil
	},
}

var courseMapping = mapping[portal.Course]{
	entity:    "Course",
	table:     "courses",
	keyColumn: "id",
	generated: true,
	columns:   []string{"title", "description", "credits", "department_id"},
	key:       func(c *portal.Course) int64 { return c.ID },
	values: func(c *portal.Course) []interface{} {
		return []interface{}{c.Title, c.Description, c.Credits, nullID(c.DepartmentID)}
	},
	scan: func(s scanner) (*portal.Course, error) {
		var c portal.Course
		var dept sql.NullInt64
		if err := s.Scan(&c.ID, &c.Title, &c.Description, &c.Credits, &dept); err != nil {
			return nil, err
		}
		c.DepartmentID = dept.Int64
		return &c, nil
	},
}

var enrollmentMapping = mapping[portal.Enrollment]{
	entity:    "Enrollment",
	table:     "enrollments",
	keyColumn: "id",
	generated: true,
	columns:   []string{"student_id", "course_id", "enrolled_at"},
	key:       func(e *portal.Enrollment) int64 { return e.ID },
	values: func(e *portal.Enrollment) []interface{} {
		return []interface{}{e.StudentID, e.CourseID, e.EnrolledAt}
	},
	scan: func(s scanner) (*portal.Enrollment, error) {
		var e portal.Enrollment
		if err := s.Scan(&e.ID, &e.StudentID, &e.CourseID, &e.EnrolledAt); err != nil {
			return nil, err
		}
		return &e, nil
	},
}

var studentProfileMapping = mapping[portal.StudentProfile]{
	entity:    "StudentProfile",
	table:     "student_profiles",
	keyColumn: "user_id",
	columns:   []string{"photo", "year", "department_id"},
	key:       func(p *portal.StudentProfile) int64 { return p.UserID },
	values: func(p *portal.StudentProfile) []interface{} {
		return []interface{}{p.Photo, p.Year, nullID(p.DepartmentID)}
	},
	scan: func(s scanner) (*portal.StudentProfile, error) {
		var p portal.StudentProfile
		var dept sql.NullInt64
		if err := s.Scan(&p.UserID, &p.Photo, &p.Year, &dept); err != nil {
			return nil, err
		}
		p.DepartmentID = dept.Int64
		return &p, nil
	},
}

var facultyProfileMapping = mapping[portal.FacultyProfile]{
	entity:    "FacultyProfile",
	table:     "faculty_profiles",
	keyColumn: "user_id",
	columns:   []string{"photo", "department_id", "office_hours"},
	key:       func(p *portal.FacultyProfile) int64 { return p.UserID },
	values: func(p *portal.FacultyProfile) []interface{} {
		return []interface{}{p.Photo, nullID(p.DepartmentID), p.OfficeHours}
	},
	scan: func(s scanner) (*portal.FacultyProfile, error) {
		var p portal.FacultyProfile
		var dept sql.NullInt64
		if err := s.Scan(&p.UserID, &p.Photo, &dept, &p.OfficeHours); err != nil {
			return nil, err
		}
		p.DepartmentID = dept.Int64
		return &p, nil
	},
}

var administratorProfileMapping = mapping[portal.AdministratorProfile]{
	entity:    "AdministratorProfile",
	table:     "administrator_profiles",
	keyColumn: "user_id",
	columns:   []string{"photo", "department_id"},
	key:       func(p *portal.AdministratorProfile) int64 { return p.UserID },
	values: func(p *portal.AdministratorProfile) []interface{} {
		return []interface{}{p.Photo, nullID(p.DepartmentID)}
	},
	scan: func(s scanner) (*portal.AdministratorProfile, error) {
		var p portal.AdministratorProfile
		var dept sql.NullInt64
		if err := s.Scan(&p.UserID, &p.Photo, &dept); err != nil {
			return nil, err
		}
		p.DepartmentID = dept.Int64
		return &p, nil
	},
}

type accountAdapter struct {
	*table[portal.Account]
}

const selectAccountByIdentifierSQL = `
	SELECT id, name, username, email, password, role
	FROM accounts
	WHERE username = $1 OR email = $1
	ORDER BY id
	LIMIT 1`

// SelectByUsernameOrEmail implements portal.AccountAdapter.
func (a *accountAdapter) SelectByUsernameOrEmail(ctx context.Context, identifier string) (*portal.Account, bool, error) {
	account, err := a.m.scan(a.repo.execQueryRow(ctx, selectAccountByIdentifierSQL, identifier))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, classify("Account", "GET", err)
	}
	return account, true, nil
}
