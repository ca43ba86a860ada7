package app

import (
	"context"
	"errors"

	"github.com/specialistvlad/testgrid/internal/config"
)

// Config holds the per-invocation settings an App runs with.
type Config struct {
	ConfigPath   string
	SourceFolder string
	TargetFolder string
}

// NewConfig validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if cfg.ConfigPath == "" {
		errs = append(errs, errors.New("config path must not be empty"))
	}
	if cfg.SourceFolder == "" {
		errs = append(errs, errors.New("source folder must not be empty"))
	}
	if cfg.TargetFolder == "" {
		errs = append(errs, errors.New("target folder must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Loader loads the configuration file. *config.Loader implements it.
type Loader interface {
	Load(ctx context.Context, path string) (*config.Model, error)
}
