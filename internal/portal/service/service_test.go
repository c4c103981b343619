package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/songzhibin97/academia/internal/portal/repository/memory"
	"github.com/songzhibin97/academia/internal/portal/repository/repotest"
	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

func newServices(t *testing.T) *Services {
	t.Helper()
	repo := memory.NewRepository()
	t.Cleanup(func() { repo.Close() })
	return New(repo)
}

func register(t *testing.T, s *Services, username, email string, role portal.Role) *portal.Account {
	t.Helper()
	account, err := s.Accounts.Register(context.Background(), repotest.NewAccount(username, email, role))
	if err != nil {
		t.Fatalf("Register(%s) error = %v", username, err)
	}
	return account
}

func TestAccounts_Register(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	first := register(t, s, "alice", "alice@example.com", portal.RoleStudent)
	if first.ID != 1 {
		t.Errorf("first account ID = %d, want 1", first.ID)
	}

	_, err := s.Accounts.Register(ctx, repotest.NewAccount("alice2", "alice@example.com", portal.RoleFacultyMember))
	if !entity.IsConflict(err) {
		t.Fatalf("duplicate email error = %v, want conflict", err)
	}
	if got, want := entity.MessageOf(err), "Email is already registered: alice@example.com"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	all, err := s.Accounts.Store().GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll() error = %v", err)
	}
	if len(all) != 1 {
		t.Errorf("account count after rejected registration = %d, want 1", len(all))
	}
}

func TestAccounts_RegisterNil(t *testing.T) {
	_, err := newServices(t).Accounts.Register(context.Background(), nil)
	if !entity.IsInvalidInput(err) {
		t.Errorf("Register(nil) error = %v, want invalid input", err)
	}
}

func TestAccounts_FindByUsernameOrEmail(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	alice := register(t, s, "alice", "alice@example.com", portal.RoleStudent)

	tests := []struct {
		name       string
		identifier string
		want       *portal.Account
		notFound   bool
	}{
		{name: "by username", identifier: "alice", want: alice},
		{name: "by email", identifier: "alice@example.com", want: alice},
		{name: "case sensitive", identifier: "Alice", notFound: true},
		{name: "unknown", identifier: "bob", notFound: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Accounts.FindByUsernameOrEmail(ctx, tt.identifier)
			if tt.notFound {
				if !entity.IsNotFound(err) {
					t.Fatalf("error = %v, want not found", err)
				}
				if !strings.Contains(entity.MessageOf(err), tt.identifier) {
					t.Errorf("message %q does not name %q", entity.MessageOf(err), tt.identifier)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("account mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestProfiles_RequireOwner(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.StudentProfiles.Save(ctx, &portal.StudentProfile{UserID: 42, Year: 1})
	if !entity.IsInvalidInput(err) {
		t.Fatalf("Save() without account error = %v, want invalid input", err)
	}
	if got, want := entity.MessageOf(err), "No Account found with ID: 42"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	account := register(t, s, "bob", "bob@example.com", portal.RoleStudent)
	saved, err := s.StudentProfiles.Save(ctx, &portal.StudentProfile{UserID: account.ID, Year: 2})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.UserID != account.ID {
		t.Errorf("profile key = %d, want owner ID %d", saved.UserID, account.ID)
	}
}

func TestProfiles_GetAttachesAccount(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	account := register(t, s, "carol", "carol@example.com", portal.RoleFacultyMember)

	if _, err := s.FacultyProfiles.Save(ctx, &portal.FacultyProfile{UserID: account.ID, OfficeHours: "Mon 10-12"}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.FacultyProfiles.Get(ctx, account.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	want := &portal.FacultyProfile{UserID: account.ID, Account: account, OfficeHours: "Mon 10-12"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("profile mismatch (-want +got):\n%s", diff)
	}

	_, err = s.FacultyProfiles.Get(ctx, 999)
	if !entity.IsNotFound(err) {
		t.Errorf("Get(999) error = %v, want not found", err)
	}
}

func TestProfiles_DepartmentReference(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	account := register(t, s, "dave", "dave@example.com", portal.RoleAdministrator)

	_, err := s.AdministratorProfiles.Save(ctx, &portal.AdministratorProfile{UserID: account.ID, DepartmentID: 7})
	if !entity.IsInvalidInput(err) {
		t.Fatalf("Save() with unknown department error = %v, want invalid input", err)
	}
	if got, want := entity.MessageOf(err), "No Department found with ID: 7"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}
}

func TestCourses_Scenario(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	saved, err := s.Courses.Save(ctx, &portal.Course{Title: "Java Programming", Credits: 3})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID != 1 {
		t.Errorf("generated key = %d, want 1", saved.ID)
	}

	got, err := s.Courses.GetByKey(ctx, 1)
	if err != nil {
		t.Fatalf("GetByKey(1) error = %v", err)
	}
	if got.Title != "Java Programming" {
		t.Errorf("Title = %q, want %q", got.Title, "Java Programming")
	}

	_, err = s.Courses.GetByKey(ctx, 999)
	if !entity.IsNotFound(err) || !strings.Contains(entity.MessageOf(err), "999") {
		t.Errorf("GetByKey(999) error = %v, want not found naming 999", err)
	}
}

func TestCourses_GetAllEmpty(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	_, err := s.Courses.GetAll(ctx)
	if !entity.IsNotFound(err) {
		t.Fatalf("GetAll() on empty store error = %v, want not found", err)
	}
	if got, want := entity.MessageOf(err), "No courses found"; got != want {
		t.Errorf("message = %q, want %q", got, want)
	}

	list, err := s.Courses.ListAll(ctx)
	if err != nil || len(list) != 0 {
		t.Errorf("ListAll() = %v, %v; want empty, nil", list, err)
	}
}

func TestEnrollments_References(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	account := register(t, s, "erin", "erin@example.com", portal.RoleStudent)
	if _, err := s.StudentProfiles.Save(ctx, &portal.StudentProfile{UserID: account.ID}); err != nil {
		t.Fatalf("Save(profile) error = %v", err)
	}
	course, err := s.Courses.Save(ctx, &portal.Course{Title: "Databases"})
	if err != nil {
		t.Fatalf("Save(course) error = %v", err)
	}

	_, err = s.Enrollments.Save(ctx, &portal.Enrollment{StudentID: account.ID, CourseID: course.ID + 1})
	if !entity.IsInvalidInput(err) {
		t.Errorf("Save() with unknown course error = %v, want invalid input", err)
	}

	enrolledAt := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
	saved, err := s.Enrollments.Save(ctx, &portal.Enrollment{StudentID: account.ID, CourseID: course.ID, EnrolledAt: enrolledAt})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	want := &portal.Enrollment{ID: 1, StudentID: account.ID, CourseID: course.ID, EnrolledAt: enrolledAt}
	if diff := cmp.Diff(want, saved); diff != "" {
		t.Errorf("enrollment mismatch (-want +got):\n%s", diff)
	}
}
