// Package service composes the entity stores into the portal's use cases.
package service

import (
	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

// Services holds one store or service per entity type, all backed by the
// same repository.
type Services struct {
	Accounts              *Accounts
	Departments           *entity.Store[int64, portal.Department]
	Courses               *entity.Store[int64, portal.Course]
	Enrollments           *entity.Store[int64, portal.Enrollment]
	StudentProfiles       *Profiles[portal.StudentProfile, *portal.StudentProfile]
	FacultyProfiles       *Profiles[portal.FacultyProfile, *portal.FacultyProfile]
	AdministratorProfiles *Profiles[portal.AdministratorProfile, *portal.AdministratorProfile]
}

// New wires the services over repo.
func New(repo portal.Repository) *Services {
	accounts := NewAccounts(repo.Accounts())
	departments := entity.NewStore[int64, portal.Department](repo.Departments(), portal.DepartmentDescriptor)

	courses := entity.NewStore(repo.Courses(), portal.CourseDescriptor,
		entity.WithGuard[int64, portal.Course](reference(departments,
			func(c *portal.Course) int64 { return c.DepartmentID }, true)))

	s := &Services{
		Accounts:    accounts,
		Departments: departments,
		Courses:     courses,
	}

	s.StudentProfiles = NewProfiles[portal.StudentProfile, *portal.StudentProfile](
		repo.StudentProfiles(), portal.StudentProfileDescriptor, accounts.Store(), departments,
		func(p *portal.StudentProfile) int64 { return p.DepartmentID })
	s.FacultyProfiles = NewProfiles[portal.FacultyProfile, *portal.FacultyProfile](
		repo.FacultyProfiles(), portal.FacultyProfileDescriptor, accounts.Store(), departments,
		func(p *portal.FacultyProfile) int64 { return p.DepartmentID })
	s.AdministratorProfiles = NewProfiles[portal.AdministratorProfile, *portal.AdministratorProfile](
		repo.AdministratorProfiles(), portal.AdministratorProfileDescriptor, accounts.Store(), departments,
		func(p *portal.AdministratorProfile) int64 { return p.DepartmentID })

	s.Enrollments = entity.NewStore(repo.Enrollments(), portal.EnrollmentDescriptor,
		entity.WithGuard[int64, portal.Enrollment](reference(s.StudentProfiles.Store(),
			func(e *portal.Enrollment) int64 { return e.StudentID }, false)),
		entity.WithGuard[int64, portal.Enrollment](reference(courses,
			func(e *portal.Enrollment) int64 { return e.CourseID }, false)),
	)

	return s
}
