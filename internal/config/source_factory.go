package config

import (
	"fmt"

	"github.com/songzhibin97/academia/internal/config/source/etcd"
	pkgConfig "github.com/songzhibin97/academia/pkg/config"
)

// CreateConfigSource returns the remote configuration source selected by cfg.
// The "file" driver is served by Load directly and has no Source.
func CreateConfigSource(cfg *Config) (pkgConfig.Source, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	sourceConfig := cfg.ConfigSource.Source

	switch sourceConfig.Driver {
	case "etcd":
		return createEtcdSource(sourceConfig)
	default:
		return nil, fmt.Errorf("unsupported configuration source driver: %s", sourceConfig.Driver)
	}
}

func createEtcdSource(sourceConfig SourceConfig) (pkgConfig.Source, error) {
	etcdConfig := sourceConfig.Etcd
	if len(etcdConfig.Endpoints) == 0 {
		return nil, fmt.Errorf("etcd endpoints are required for etcd source driver")
	}
	if etcdConfig.Key == "" {
		return nil, fmt.Errorf("etcd key is required for etcd source driver")
	}

	source, err := etcd.NewEtcdSource(&etcd.EtcdConfig{
		Endpoints: etcdConfig.Endpoints,
		Timeout:   etcdConfig.Timeout,
		Username:  etcdConfig.Username,
		Password:  etcdConfig.Password,
	}, etcdConfig.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd source: %w", err)
	}

	return source, nil
}
