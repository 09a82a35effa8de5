package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"

	"github.com/unkn0wn-root/unihub/logger"
)

const (
	// ProjectConfigFile is looked up in the working directory and its parents
	ProjectConfigFile = "unihub.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/unihub"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvPrefix prefixes every environment override, e.g. UNIHUB_API_BASE_URL
	EnvPrefix = "UNIHUB_"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	log logger.Logger
	// Path, when set, replaces the user and project files.
	Path string
	// Environ overrides os.Environ (tests).
	Environ map[string]string
	// Home and WorkDir override the user home and cwd (tests).
	Home    string
	WorkDir string
}

func NewLoader(log logger.Logger) *Loader {
	return &Loader{log: logger.OrNop(log)}
}

// Load applies, in order:
// 1. DefaultConfig
// 2. user config (~/.config/unihub/config.yaml)
// 3. project config (unihub.yaml in the working directory or a parent)
// 4. UNIHUB_* environment variables
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	if l.Path != "" {
		fileConfig, err := LoadFromFile(l.Path)
		if err != nil {
			return nil, err
		}
		l.log.Debug("loaded config", logger.Fields{"path": l.Path})
		config.Merge(fileConfig)
	} else {
		if p := l.userConfigPath(); p != "" {
			if userConfig, err := LoadFromFile(p); err == nil {
				l.log.Debug("loaded user config", logger.Fields{"path": p})
				config.Merge(userConfig)
			} else if !errors.Is(err, fs.ErrNotExist) {
				l.log.Warn("failed to load user config", logger.Fields{"path": p, "err": err.Error()})
			}
		}
		if p := l.findProjectConfig(); p != "" {
			projectConfig, err := LoadFromFile(p)
			if err != nil {
				return nil, err
			}
			l.log.Debug("loaded project config", logger.Fields{"path": p})
			config.Merge(projectConfig)
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if l.Environ != nil {
		opts.Environment = l.Environ
	}
	if err := env.ParseWithOptions(config, opts); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (l *Loader) userConfigPath() string {
	home := l.Home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for unihub.yaml in the working directory and its parents
func (l *Loader) findProjectConfig() string {
	dir := l.WorkDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return ""
		}
	}
	for {
		p := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
