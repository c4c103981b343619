package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/songzhibin97/academia/internal/portal/repository/repotest"
	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

func TestRepository_Conformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) portal.Repository {
		repo := NewRepository()
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestRepository_GeneratedKeysStartAtOne(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	saved, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: "Java Programming"})
	if err != nil {
		t.Fatalf("InsertOrUpsert() returned error: %v", err)
	}
	if saved.ID != 1 {
		t.Errorf("first generated key = %d, want 1", saved.ID)
	}

	// An explicit key moves the sequence past it.
	if _, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{ID: 10, Title: "Imported"}); err != nil {
		t.Fatalf("InsertOrUpsert(ID 10) returned error: %v", err)
	}
	next, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: "Next"})
	if err != nil {
		t.Fatalf("InsertOrUpsert() returned error: %v", err)
	}
	if next.ID != 11 {
		t.Errorf("generated key after explicit 10 = %d, want 11", next.ID)
	}
}

func TestRepository_ReturnsCopies(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	saved, _ := repo.Departments().InsertOrUpsert(ctx, &portal.Department{Name: "Physics"})
	saved.Name = "mutated"

	got, _, _ := repo.Departments().SelectByKey(ctx, saved.ID)
	if got.Name != "Physics" {
		t.Errorf("stored department was modified through returned pointer: %q", got.Name)
	}
}

func TestRepository_ProfileKeyRequired(t *testing.T) {
	repo := NewRepository()

	_, err := repo.StudentProfiles().InsertOrUpsert(context.Background(), &portal.StudentProfile{})
	if !entity.IsInvalidInput(err) {
		t.Errorf("profile without key error = %v, want InvalidInput", err)
	}
}

func TestRepository_AccountValidation(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	tests := []struct {
		name    string
		account *portal.Account
	}{
		{"missing username", &portal.Account{Email: "a@example.edu", Role: portal.RoleStudent}},
		{"missing email", &portal.Account{Username: "a", Role: portal.RoleStudent}},
		{"unknown role", &portal.Account{Username: "a", Email: "a@example.edu", Role: "DEAN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := repo.Accounts().InsertOrUpsert(ctx, tt.account); !entity.IsInvalidInput(err) {
				t.Errorf("InsertOrUpsert() error = %v, want InvalidInput", err)
			}
		})
	}
}

func TestRepository_Close(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	if _, err := repo.Accounts().InsertOrUpsert(ctx, repotest.NewAccount("ada", "ada@example.edu", portal.RoleStudent)); err != nil {
		t.Fatalf("InsertOrUpsert() returned error: %v", err)
	}

	if err := repo.Close(); err != nil {
		t.Fatalf("Close() returned error: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Errorf("second Close() returned error: %v", err)
	}

	if health := repo.Health(ctx); health.Status != portal.HealthStatusUnhealthy {
		t.Errorf("Health().Status after close = %q", health.Status)
	}
	if _, err := repo.Accounts().InsertOrUpsert(ctx, repotest.NewAccount("b", "b@example.edu", portal.RoleStudent)); !entity.IsDatabase(err) {
		t.Errorf("InsertOrUpsert() on closed repo error = %v, want Database", err)
	}
	if _, _, err := repo.Accounts().SelectByKey(ctx, 1); !entity.IsDatabase(err) {
		t.Errorf("SelectByKey() on closed repo error = %v, want Database", err)
	}
	if _, _, err := repo.Accounts().SelectByUsernameOrEmail(ctx, "ada"); !entity.IsDatabase(err) {
		t.Errorf("SelectByUsernameOrEmail() on closed repo error = %v, want Database", err)
	}
	if _, err := repo.Courses().SelectAll(ctx); !entity.IsDatabase(err) {
		t.Errorf("SelectAll() on closed repo error = %v, want Database", err)
	}
}

func TestRepository_ConcurrentInserts(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.Courses().InsertOrUpsert(ctx, &portal.Course{Title: "parallel"}); err != nil {
				t.Errorf("InsertOrUpsert() returned error: %v", err)
			}
		}()
	}
	wg.Wait()

	all, err := repo.Courses().SelectAll(ctx)
	if err != nil {
		t.Fatalf("SelectAll() returned error: %v", err)
	}
	seen := make(map[int64]bool)
	for _, c := range all {
		if seen[c.ID] {
			t.Errorf("duplicate key %d", c.ID)
		}
		seen[c.ID] = true
	}
	if len(all) != 50 {
		t.Errorf("SelectAll() returned %d rows, want 50", len(all))
	}
}
