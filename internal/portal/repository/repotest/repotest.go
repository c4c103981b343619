// Package repotest holds the behavior every portal.Repository implementation
// must share. Adapter packages run it from their own tests.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

// Factory returns an empty repository. Cleanup is the factory's responsibility.
type Factory func(t *testing.T) portal.Repository

// Run exercises repositories produced by newRepo.
func Run(t *testing.T, newRepo Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, repo portal.Repository)
	}{
		{"GeneratedKeyRoundTrip", testGeneratedKeyRoundTrip},
		{"UpsertReplaces", testUpsertReplaces},
		{"NegativeKeyRejected", testNegativeKeyRejected},
		{"SelectMissing", testSelectMissing},
		{"SelectAllOrdered", testSelectAllOrdered},
		{"AccountUniqueness", testAccountUniqueness},
		{"AccountLookup", testAccountLookup},
		{"ProfileRequiresAccount", testProfileRequiresAccount},
		{"ProfileSharesAccountKey", testProfileSharesAccountKey},
		{"EnrollmentReferences", testEnrollmentReferences},
		{"CourseDepartmentReference", testCourseDepartmentReference},
		{"Health", testHealth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.fn(t, newRepo(t))
		})
	}
}

// NewAccount returns a valid, unsaved account.
func NewAccount(username, email string, role portal.Role) *portal.Account {
	return &portal.Account{
		Name:     "Test " + username,
		Username: username,
		Email:    email,
		Password: "$2a$10$abcdefghijklmnopqrstuuJ0Qqv7YxKq0Wq1Rz5o6m4e2d8c9b0a",
		Role:     role,
	}
}

func mustSaveAccount(t *testing.T, repo portal.Repository, username, email string, role portal.Role) *portal.Account {
	t.Helper()
	saved, err := repo.Accounts().InsertOrUpsert(context.Background(), NewAccount(username, email, role))
	if err != nil {
		t.Fatalf("InsertOrUpsert(account %s) returned error: %v", username, err)
	}
	return saved
}

func testGeneratedKeyRoundTrip(t *testing.T, repo portal.Repository) {
	ctx := context.Background()
	course := &portal.Course{Title: "Java Programming", Description: "Intro", Credits: 4}

	saved, err := repo.Courses().InsertOrUpsert(ctx, course)
	if err != nil {
		t.Fatalf("InsertOrUpsert() returned error: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("InsertOrUpsert() did not assign a key")
	}
	if course.ID != 0 {
		t.Error("InsertOrUpsert() must not modify its argument")
	}

	got, ok, err := repo.Courses().SelectByKey(ctx, saved.ID)
	if err != nil || !ok {
		t.Fatalf("SelectByKey(%d) = ok %v, err %v", saved.ID, ok, err)
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Errorf("SelectByKey() mismatch (-want +got):\n%s", diff)
	}
}

func testUpsertReplaces(t *testing.T, repo portal.Repository) {
	ctx := context.Background()

	saved, err := repo.Departments().InsertOrUpsert(ctx, &portal.Department{Name: "Mathematics"})
	if err != nil {
		t.Fatalf("InsertOrUpsert() returned error: %v", err)
	}
	saved.Name = "Applied Mathematics"
	updated, err := repo.Departments().InsertOrUpsert(ctx, saved)
	if err != nil {
		t.Fatalf("InsertOrUpsert() update returned error: %v", err)
	}
	if updated.ID != saved.ID {
		t.Errorf("update changed key from %d to %d", saved.ID, updated.ID)
	}

	all, err := repo.Departments().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	want := []*portal.Department{{ID: saved.ID, Name: "Applied Mathematics"}}
	if diff := cmp.Diff(want, all); diff != "" {
		t.Errorf("SelectAll() after upsert mismatch (-want +got):\n%s", diff)
	}
}

func testNegativeKeyRejected(t *testing.T, repo portal.Repository) {
	ctx := context.Background()
	first, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: "Java Programming", Credits: 4})
	if err != nil {
		t.Fatalf("InsertOrUpsert() returned error: %v", err)
	}

	_, err = repo.Courses().InsertOrUpsert(ctx, &portal.Course{ID: -1, Title: "Negative"})
	if !entity.IsInvalidInput(err) {
		t.Fatalf("InsertOrUpsert(ID -1) error = %v, want InvalidInput", err)
	}

	seen := map[int64]bool{first.ID: true}
	for _, title := range []string{"A", "B"} {
		saved, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: title})
		if err != nil {
			t.Fatalf("InsertOrUpsert(%s) returned error: %v", title, err)
		}
		if saved.ID <= 0 || seen[saved.ID] {
			t.Fatalf("InsertOrUpsert(%s) generated key %d, already used or not positive", title, saved.ID)
		}
		seen[saved.ID] = true
	}

	got, ok, err := repo.Courses().SelectByKey(ctx, first.ID)
	if err != nil || !ok {
		t.Fatalf("SelectByKey(%d) = ok %v, err %v", first.ID, ok, err)
	}
	if got.Title != "Java Programming" {
		t.Errorf("course %d title = %q, want %q", first.ID, got.Title, "Java Programming")
	}

	all, err := repo.Courses().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("SelectAll() returned %d courses, want 3", len(all))
	}
}

func testSelectMissing(t *testing.T, repo portal.Repository) {
	ctx := context.Background()

	got, ok, err := repo.Courses().SelectByKey(ctx, 999)
	if err != nil {
		t.Fatalf("SelectByKey(999) returned error: %v", err)
	}
	if ok || got != nil {
		t.Errorf("SelectByKey(999) = %v, %v; want nil, false", got, ok)
	}

	all, err := repo.Courses().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("SelectAll() on empty table returned %d rows", len(all))
	}
}

func testSelectAllOrdered(t *testing.T, repo portal.Repository) {
	ctx := context.Background()
	titles := []string{"Algorithms", "Databases", "Networks"}
	for _, title := range titles {
		if _, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: title}); err != nil {
			t.Fatalf("InsertOrUpsert(%q) returned error: %v", title, err)
		}
	}

	all, err := repo.Courses().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	if len(all) != len(titles) {
		t.Fatalf("SelectAll() returned %d rows, want %d", len(all), len(titles))
	}
	for i, c := range all {
		if c.Title != titles[i] {
			t.Errorf("row %d title = %q, want %q", i, c.Title, titles[i])
		}
		if i > 0 && all[i-1].ID >= c.ID {
			t.Errorf("rows not ordered by key: %d before %d", all[i-1].ID, c.ID)
		}
	}
}

func testAccountUniqueness(t *testing.T, repo portal.Repository) {
	ctx := context.Background()
	first := mustSaveAccount(t, repo, "ada", "ada@example.edu", portal.RoleStudent)

	_, err := repo.Accounts().InsertOrUpsert(ctx, NewAccount("ada2", "ada@example.edu", portal.RoleStudent))
	if !entity.IsConflict(err) {
		t.Errorf("duplicate email error = %v, want Conflict", err)
	}
	_, err = repo.Accounts().InsertOrUpsert(ctx, NewAccount("ada", "other@example.edu", portal.RoleStudent))
	if !entity.IsConflict(err) {
		t.Errorf("duplicate username error = %v, want Conflict", err)
	}

	// Re-saving the same account keeps its own email.
	first.Name = "Ada King"
	if _, err := repo.Accounts().InsertOrUpsert(ctx, first); err != nil {
		t.Errorf("upsert of existing account returned error: %v", err)
	}

	// A changed email frees the old one.
	first.Email = "ada.king@example.edu"
	if _, err := repo.Accounts().InsertOrUpsert(ctx, first); err != nil {
		t.Fatalf("email change returned error: %v", err)
	}
	if _, err := repo.Accounts().InsertOrUpsert(ctx, NewAccount("lovelace", "ada@example.edu", portal.RoleStudent)); err != nil {
		t.Errorf("reusing a released email returned error: %v", err)
	}

	all, err := repo.Accounts().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("SelectAll() returned %d accounts, want 2", len(all))
	}
}

func testAccountLookup(t *testing.T, repo portal.Repository) {
	ctx := context.Background()
	saved := mustSaveAccount(t, repo, "grace", "grace@example.edu", portal.RoleFacultyMember)

	for _, identifier := range []string{"grace", "grace@example.edu"} {
		got, ok, err := repo.Accounts().SelectByUsernameOrEmail(ctx, identifier)
		if err != nil || !ok {
			t.Fatalf("SelectByUsernameOrEmail(%q) = ok %v, err %v", identifier, ok, err)
		}
		if diff := cmp.Diff(saved, got); diff != "" {
			t.Errorf("SelectByUsernameOrEmail(%q) mismatch (-want +got):\n%s", identifier, diff)
		}
	}

	for _, identifier := range []string{"Grace", "GRACE@example.edu", "nobody", ""} {
		_, ok, err := repo.Accounts().SelectByUsernameOrEmail(ctx, identifier)
		if err != nil {
			t.Fatalf("SelectByUsernameOrEmail(%q) returned error: %v", identifier, err)
		}
		if ok {
			t.Errorf("SelectByUsernameOrEmail(%q) matched; lookup must be exact", identifier)
		}
	}
}

func testProfileRequiresAccount(t *testing.T, repo portal.Repository) {
	ctx := context.Background()

	_, err := repo.StudentProfiles().InsertOrUpsert(ctx, &portal.StudentProfile{UserID: 4242, Year: 1})
	if !entity.IsInvalidInput(err) {
		t.Errorf("student profile without account error = %v, want InvalidInput", err)
	}
	_, err = repo.FacultyProfiles().InsertOrUpsert(ctx, &portal.FacultyProfile{UserID: 4242})
	if !entity.IsInvalidInput(err) {
		t.Errorf("faculty profile without account error = %v, want InvalidInput", err)
	}
	_, err = repo.AdministratorProfiles().InsertOrUpsert(ctx, &portal.AdministratorProfile{UserID: 4242})
	if !entity.IsInvalidInput(err) {
		t.Errorf("administrator profile without account error = %v, want InvalidInput", err)
	}

	all, err := repo.StudentProfiles().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("rejected profile was stored")
	}
}

func testProfileSharesAccountKey(t *testing.T, repo portal.Repository) {
	ctx := context.Background()
	account := mustSaveAccount(t, repo, "alan", "alan@example.edu", portal.RoleStudent)

	saved, err := repo.StudentProfiles().InsertOrUpsert(ctx, &portal.StudentProfile{
		UserID:  account.ID,
		Account: account,
		Photo:   "alan.png",
		Year:    2,
	})
	if err != nil {
		t.Fatalf("InsertOrUpsert(profile) returned error: %v", err)
	}
	if saved.UserID != account.ID {
		t.Errorf("profile key = %d, want account key %d", saved.UserID, account.ID)
	}

	got, ok, err := repo.StudentProfiles().SelectByKey(ctx, account.ID)
	if err != nil || !ok {
		t.Fatalf("SelectByKey(%d) = ok %v, err %v", account.ID, ok, err)
	}
	want := &portal.StudentProfile{UserID: account.ID, Photo: "alan.png", Year: 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stored profile mismatch (-want +got):\n%s", diff)
	}

	got.Year = 3
	if _, err := repo.StudentProfiles().InsertOrUpsert(ctx, got); err != nil {
		t.Fatalf("profile upsert returned error: %v", err)
	}
	all, err := repo.StudentProfiles().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	if len(all) != 1 || all[0].Year != 3 {
		t.Errorf("SelectAll() after upsert = %+v", all)
	}
}

func testEnrollmentReferences(t *testing.T, repo portal.Repository) {
	ctx := context.Background()
	account := mustSaveAccount(t, repo, "edsger", "edsger@example.edu", portal.RoleStudent)
	if _, err := repo.StudentProfiles().InsertOrUpsert(ctx, &portal.StudentProfile{UserID: account.ID}); err != nil {
		t.Fatalf("InsertOrUpsert(profile) returned error: %v", err)
	}
	course, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: "Structured Programming"})
	if err != nil {
		t.Fatalf("InsertOrUpsert(course) returned error: %v", err)
	}

	enrolledAt := time.Date(2024, 9, 1, 9, 0, 0, 0, time.UTC)
	saved, err := repo.Enrollments().InsertOrUpsert(ctx, &portal.Enrollment{
		StudentID:  account.ID,
		CourseID:   course.ID,
		EnrolledAt: enrolledAt,
	})
	if err != nil {
		t.Fatalf("InsertOrUpsert(enrollment) returned error: %v", err)
	}
	got, ok, err := repo.Enrollments().SelectByKey(ctx, saved.ID)
	if err != nil || !ok {
		t.Fatalf("SelectByKey(%d) = ok %v, err %v", saved.ID, ok, err)
	}
	if !got.EnrolledAt.Equal(enrolledAt) {
		t.Errorf("EnrolledAt = %v, want %v", got.EnrolledAt, enrolledAt)
	}

	_, err = repo.Enrollments().InsertOrUpsert(ctx, &portal.Enrollment{StudentID: account.ID, CourseID: course.ID + 100})
	if !entity.IsInvalidInput(err) {
		t.Errorf("enrollment with missing course error = %v, want InvalidInput", err)
	}
	_, err = repo.Enrollments().InsertOrUpsert(ctx, &portal.Enrollment{StudentID: account.ID + 100, CourseID: course.ID})
	if !entity.IsInvalidInput(err) {
		t.Errorf("enrollment with missing student error = %v, want InvalidInput", err)
	}
}

func testCourseDepartmentReference(t *testing.T, repo portal.Repository) {
	ctx := context.Background()

	_, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: "Topology", DepartmentID: 777})
	if !entity.IsInvalidInput(err) {
		t.Errorf("course with missing department error = %v, want InvalidInput", err)
	}

	dept, err := repo.Departments().InsertOrUpsert(ctx, &portal.Department{Name: "Mathematics"})
	if err != nil {
		t.Fatalf("InsertOrUpsert(department) returned error: %v", err)
	}
	course, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: "Topology", DepartmentID: dept.ID})
	if err != nil {
		t.Fatalf("InsertOrUpsert(course) returned error: %v", err)
	}
	if course.DepartmentID != dept.ID {
		t.Errorf("DepartmentID = %d, want %d", course.DepartmentID, dept.ID)
	}
}

func testHealth(t *testing.T, repo portal.Repository) {
	health := repo.Health(context.Background())
	if health.Status != portal.HealthStatusHealthy {
		t.Errorf("Health().Status = %q, want %q (%s)", health.Status, portal.HealthStatusHealthy, health.Message)
	}
	if health.Timestamp.IsZero() {
		t.Error("Health().Timestamp not set")
	}
}
