package postgres

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/songzhibin97/academia/internal/portal/repository/repotest"
	"github.com/songzhibin97/academia/pkg/entity"
	"github.com/songzhibin97/academia/pkg/portal"
)

var testRepo *Repository

// Tests in this package need a live database; they are skipped unless
// TEST_POSTGRES_DSN is set.
func TestMain(m *testing.M) {
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn != "" {
		if err := setupTestDB(dsn); err != nil {
			fmt.Printf("Failed to setup test database: %v\n", err)
			os.Exit(1)
		}
	}

	code := m.Run()

	if testRepo != nil {
		testRepo.Close()
	}

	os.Exit(code)
}

func setupTestDB(dsn string) error {
	config := &Config{
		DSN:             dsn,
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}

	var err error
	testRepo, err = NewRepository(config)
	if err != nil {
		return fmt.Errorf("failed to create repository: %w", err)
	}

	if err := testRepo.Migrate(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func requireDB(t *testing.T) {
	t.Helper()
	if testRepo == nil {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
}

func cleanupTestData(t *testing.T) {
	t.Helper()
	_, err := testRepo.db.ExecContext(context.Background(), `
		TRUNCATE enrollments, administrator_profiles, faculty_profiles, student_profiles,
		         courses, departments, accounts
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("Failed to clean test data: %v", err)
	}
}

// sharedRepo hides Close so a subtest cannot close the pool the whole package uses.
type sharedRepo struct {
	*Repository
}

func (sharedRepo) Close() error { return nil }

func TestRepositoryConformance(t *testing.T) {
	requireDB(t)

	repotest.Run(t, func(t *testing.T) portal.Repository {
		cleanupTestData(t)
		return sharedRepo{testRepo}
	})
}

func TestClassifyDuplicateEmail(t *testing.T) {
	requireDB(t)
	cleanupTestData(t)

	ctx := context.Background()
	if _, err := testRepo.Accounts().InsertOrUpsert(ctx, repotest.NewAccount("alice", "alice@example.com", portal.RoleStudent)); err != nil {
		t.Fatalf("InsertOrUpsert() error = %v", err)
	}

	_, err := testRepo.Accounts().InsertOrUpsert(ctx, repotest.NewAccount("alice2", "alice@example.com", portal.RoleStudent))
	if !entity.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestProfileWithoutKey(t *testing.T) {
	requireDB(t)
	cleanupTestData(t)

	_, err := testRepo.StudentProfiles().InsertOrUpsert(context.Background(), &portal.StudentProfile{Year: 2})
	if !entity.IsInvalidInput(err) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestHealthReportsDatabase(t *testing.T) {
	requireDB(t)

	status := testRepo.Health(context.Background())
	if status.Status != portal.HealthStatusHealthy {
		t.Fatalf("Health().Status = %q, want %q", status.Status, portal.HealthStatusHealthy)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		t.Fatalf("iofs.New() error = %v", err)
	}
	defer src.Close()

	version, err := src.First()
	if err != nil {
		t.Fatalf("First() error = %v", err)
	}
	if version != 1 {
		t.Errorf("First() = %d, want 1", version)
	}

	up, _, err := src.ReadUp(version)
	if err != nil {
		t.Fatalf("ReadUp(%d) error = %v", version, err)
	}
	defer up.Close()
	body, err := io.ReadAll(up)
	if err != nil {
		t.Fatalf("read up migration: %v", err)
	}
	for _, table := range []string{"accounts", "courses", "student_profiles", "enrollments"} {
		if !strings.Contains(string(body), "CREATE TABLE IF NOT EXISTS "+table+" (") {
			t.Errorf("up migration does not create %s", table)
		}
	}
}
