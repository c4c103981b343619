package bolt

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/songzhibin97/academia/internal/portal/repository/repotest"
	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

func newTestRepository(t *testing.T, path string) *Repository {
	t.Helper()
	repo, err := NewRepository(&Config{Path: path, Timeout: time.Second})
	if err != nil {
		t.Fatalf("NewRepository() error = %v", err)
	}
	return repo
}

func TestRepository_Conformance(t *testing.T) {
	repotest.Run(t, func(t *testing.T) portal.Repository {
		repo := newTestRepository(t, filepath.Join(t.TempDir(), "academia.db"))
		t.Cleanup(func() { repo.Close() })
		return repo
	})
}

func TestRepository_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "academia.db")

	repo := newTestRepository(t, path)
	account, err := repo.Accounts().InsertOrUpsert(ctx, repotest.NewAccount("alice", "alice@example.com", portal.RoleStudent))
	if err != nil {
		t.Fatalf("InsertOrUpsert() error = %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	repo = newTestRepository(t, path)
	defer repo.Close()

	got, ok, err := repo.Accounts().SelectByKey(ctx, account.ID)
	if err != nil || !ok {
		t.Fatalf("SelectByKey() = %v, %v, %v", got, ok, err)
	}
	if diff := cmp.Diff(account, got); diff != "" {
		t.Errorf("reopened account mismatch (-want +got):\n%s", diff)
	}
	if got.Password == "" {
		t.Error("password hash was not persisted")
	}

	next, err := repo.Accounts().InsertOrUpsert(ctx, repotest.NewAccount("bob", "bob@example.com", portal.RoleStudent))
	if err != nil {
		t.Fatalf("InsertOrUpsert() error = %v", err)
	}
	if next.ID != account.ID+1 {
		t.Errorf("next ID = %d, want %d", next.ID, account.ID+1)
	}
}

func TestRepository_ExplicitKeyAdvancesSequence(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t, filepath.Join(t.TempDir(), "academia.db"))
	defer repo.Close()

	if _, err := repo.Departments().InsertOrUpsert(ctx, &portal.Department{ID: 10, Name: "Physics"}); err != nil {
		t.Fatalf("InsertOrUpsert() error = %v", err)
	}
	saved, err := repo.Departments().InsertOrUpsert(ctx, &portal.Department{Name: "Chemistry"})
	if err != nil {
		t.Fatalf("InsertOrUpsert() error = %v", err)
	}
	if saved.ID != 11 {
		t.Errorf("generated ID = %d, want 11", saved.ID)
	}
}

func TestRepository_ClosedReturnsDatabaseError(t *testing.T) {
	repo := newTestRepository(t, filepath.Join(t.TempDir(), "academia.db"))
	if err := repo.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	_, _, err := repo.Departments().SelectByKey(context.Background(), 1)
	if !entity.IsDatabase(err) {
		t.Errorf("SelectByKey() after Close error = %v, want database error", err)
	}
	if status := repo.Health(context.Background()); status.Status != portal.HealthStatusUnhealthy {
		t.Errorf("Health().Status = %q, want %q", status.Status, portal.HealthStatusUnhealthy)
	}
}
