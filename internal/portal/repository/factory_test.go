package repository

import (
	"path/filepath"
	"testing"

	"github.com/songzhibin97/academia/internal/config"
	"github.com/songzhibin97/academia/internal/portal/repository/bolt"
	"github.com/songzhibin97/academia/internal/portal/repository/memory"
)

func TestOpen(t *testing.T) {
	t.Run("memory by default", func(t *testing.T) {
		repo, err := Open(config.PortalRepositoryConfig{})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer repo.Close()
		if _, ok := repo.(*memory.Repository); !ok {
			t.Errorf("Open() returned %T, want *memory.Repository", repo)
		}
	})

	t.Run("bolt", func(t *testing.T) {
		repo, err := Open(config.PortalRepositoryConfig{
			Type: TypeBolt,
			Bolt: config.PortalBoltConfig{Path: filepath.Join(t.TempDir(), "portal.db")},
		})
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		defer repo.Close()
		if _, ok := repo.(*bolt.Repository); !ok {
			t.Errorf("Open() returned %T, want *bolt.Repository", repo)
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		if _, err := Open(config.PortalRepositoryConfig{Type: "mongo"}); err == nil {
			t.Error("Open() expected error for unknown type")
		}
	})
}
