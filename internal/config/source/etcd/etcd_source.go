package etcd

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/songzhibin97/academia/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// EtcdSource implements config.Source by reading a single etcd key.
type EtcdSource struct {
	client *clientv3.Client
	key    string
	mu     sync.RWMutex
	closed bool
}

// EtcdConfig represents etcd connection configuration.
type EtcdConfig struct {
	Endpoints []string      `yaml:"endpoints"`
	Timeout   time.Duration `yaml:"timeout"`
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"`
	TLS       *TLSConfig    `yaml:"tls,omitempty"`
}

// TLSConfig represents TLS configuration for etcd.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
	CAFile   string `yaml:"ca_file"`
}

// NewEtcdSource connects to etcd and returns a source reading key.
func NewEtcdSource(cfg *EtcdConfig, key string) (config.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("etcd config cannot be nil")
	}
	if key == "" {
		return nil, fmt.Errorf("etcd key cannot be empty")
	}
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints cannot be empty")
	}

	clientConfig := clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.Timeout,
	}
	if clientConfig.DialTimeout == 0 {
		clientConfig.DialTimeout = 5 * time.Second
	}
	if cfg.Username != "" {
		clientConfig.Username = cfg.Username
		clientConfig.Password = cfg.Password
	}
	if cfg.TLS != nil && cfg.TLS.Enabled {
		tlsConfig, err := createTLSConfig(cfg.TLS)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		clientConfig.TLS = tlsConfig
	}

	client, err := clientv3.New(clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), clientConfig.DialTimeout)
	defer cancel()

	if _, err := client.Status(ctx, cfg.Endpoints[0]); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &EtcdSource{client: client, key: key}, nil
}

// Get reads the configuration document stored under the source key.
func (es *EtcdSource) Get(ctx context.Context) ([]byte, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	if es.closed {
		return nil, fmt.Errorf("etcd source is closed")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := es.client.Get(ctx, es.key)
	if err != nil {
		return nil, fmt.Errorf("failed to get key %s from etcd: %w", es.key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, fmt.Errorf("key %s not found in etcd", es.key)
	}

	return resp.Kvs[0].Value, nil
}

// Close closes the etcd client.
func (es *EtcdSource) Close() error {
	es.mu.Lock()
	defer es.mu.Unlock()

	if es.closed {
		return nil
	}
	es.closed = true

	if es.client != nil {
		return es.client.Close()
	}
	return nil
}

func createTLSConfig(tlsConfig *TLSConfig) (*tls.Config, error) {
	config := &tls.Config{MinVersion: tls.VersionTLS12}

	if tlsConfig.CertFile != "" && tlsConfig.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(tlsConfig.CertFile, tlsConfig.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		config.Certificates = []tls.Certificate{cert}
	}

	if tlsConfig.CAFile != "" {
		pem, err := os.ReadFile(tlsConfig.CAFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", tlsConfig.CAFile)
		}
		config.RootCAs = pool
	}

	return config, nil
}
