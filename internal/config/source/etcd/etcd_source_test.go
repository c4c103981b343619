package etcd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewEtcdSource(t *testing.T) {
	tests := []struct {
		name string
		cfg  *EtcdConfig
		key  string
	}{
		{
			name: "nil config",
			cfg:  nil,
			key:  "/academia/config",
		},
		{
			name: "empty key",
			cfg: &EtcdConfig{
				Endpoints: []string{"localhost:2379"},
				Timeout:   5 * time.Second,
			},
			key: "",
		},
		{
			name: "empty endpoints",
			cfg: &EtcdConfig{
				Endpoints: []string{},
				Timeout:   5 * time.Second,
			},
			key: "/academia/config",
		},
		{
			name: "missing client certificate",
			cfg: &EtcdConfig{
				Endpoints: []string{"localhost:2379"},
				TLS: &TLSConfig{
					Enabled:  true,
					CertFile: "/nonexistent/cert.pem",
					KeyFile:  "/nonexistent/key.pem",
				},
			},
			key: "/academia/config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := NewEtcdSource(tt.cfg, tt.key)
			if err == nil {
				t.Errorf("Expected error but got none")
			}
			if source != nil {
				source.Close()
			}
		})
	}
}

func TestCreateTLSConfig_InvalidCA(t *testing.T) {
	caFile := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(caFile, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("failed to write CA file: %v", err)
	}

	_, err := createTLSConfig(&TLSConfig{Enabled: true, CAFile: caFile})
	if err == nil || !strings.Contains(err.Error(), "no certificates found") {
		t.Errorf("expected CA parse error, got %v", err)
	}
}

// Requires a running etcd; set ACADEMIA_TEST_ETCD_ENDPOINT to enable.
func TestEtcdSource_Get(t *testing.T) {
	endpoint := os.Getenv("ACADEMIA_TEST_ETCD_ENDPOINT")
	if endpoint == "" {
		t.Skip("ACADEMIA_TEST_ETCD_ENDPOINT not set")
	}

	source, err := NewEtcdSource(&EtcdConfig{Endpoints: []string{endpoint}, Timeout: 2 * time.Second}, "/academia/test/missing-key")
	if err != nil {
		t.Fatalf("NewEtcdSource() error = %v", err)
	}
	defer source.Close()

	if _, err := source.Get(context.Background()); err == nil {
		t.Error("expected error for missing key")
	}

	if err := source.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if _, err := source.Get(context.Background()); err == nil {
		t.Error("expected error after Close")
	}
}
