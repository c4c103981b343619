package portal

import "github.com/songzhibin97/academia/pkg/entity"

// Descriptors name each entity type for kernel messages and expose its key.
var (
	AccountDescriptor = entity.Descriptor[int64, Account]{
		Name:   "Account",
		Plural: "accounts",
		Key:    func(a *Account) int64 { return a.ID },
	}
	DepartmentDescriptor = entity.Descriptor[int64, Department]{
		Name:   "Department",
		Plural: "departments",
		Key:    func(d *Department) int64 { return d.ID },
	}
	CourseDescriptor = entity.Descriptor[int64, Course]{
		Name:   "Course",
		Plural: "courses",
		Key:    func(c *Course) int64 { return c.ID },
	}
	EnrollmentDescriptor = entity.Descriptor[int64, Enrollment]{
		Name:   "Enrollment",
		Plural: "enrollments",
		Key:    func(e *Enrollment) int64 { return e.ID },
	}
	StudentProfileDescriptor = entity.Descriptor[int64, StudentProfile]{
		Name:   "StudentProfile",
		Plural: "student profiles",
		Key:    func(p *StudentProfile) int64 { return p.UserID },
	}
	FacultyProfileDescriptor = entity.Descriptor[int64, FacultyProfile]{
		Name:   "FacultyProfile",
		Plural: "faculty profiles",
		Key:    func(p *FacultyProfile) int64 { return p.UserID },
	}
	AdministratorProfileDescriptor = entity.Descriptor[int64, AdministratorProfile]{
		Name:   "AdministratorProfile",
		Plural: "administrator profiles",
		Key:    func(p *AdministratorProfile) int64 { return p.UserID },
	}
)
