// Package portal provides the domain model and backing-store contracts of the
// academia portal.
//
// # Architecture
//
//   - Repository: one backing store (memory, PostgreSQL, bbolt) exposing an
//     entity.Adapter per entity type plus health and lifecycle.
//   - AccountAdapter: the account adapter with the username-or-email lookup
//     used by login and registration.
//   - Descriptors: the entity.Descriptor of every type, shared by all stores.
//
// # Data Models
//
//   - Account: a registered user with a Role (STUDENT, FACULTY_MEMBER, ADMINISTRATOR).
//   - Department, Course, Enrollment: primary entities whose keys the store generates.
//   - StudentProfile, FacultyProfile, AdministratorProfile: role data whose key is
//     the owning Account's ID. A profile cannot exist without its account.
//
// # Usage
//
//	repo := memory.NewRepository()
//	accounts := entity.NewStore[int64, portal.Account](repo.Accounts(), portal.AccountDescriptor)
//	saved, err := accounts.Save(ctx, &portal.Account{
//		Name:     "Ada Lovelace",
//		Username: "ada",
//		Email:    "ada@example.edu",
//		Role:     portal.RoleStudent,
//	})
//
// Failures are reported as *entity.Error values; see package entity.
package portal
