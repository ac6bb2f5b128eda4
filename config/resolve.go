package config

import (
	"fmt"
	"os"
	"time"
)

// Defaults used when neither the environment nor the config file set a value.
const (
	DefaultDSN      = "papers.db"
	DefaultTimeout  = 30 * time.Second
	DefaultDebounce = time.Second
)

// DefaultExtensions are the file extensions the watcher reacts to.
var DefaultExtensions = []string{".html", ".htm"}

// Settings is the resolved configuration of the command line tool.
type Settings struct {
	DSN        string
	Timeout    time.Duration
	UserAgent  string
	Debounce   time.Duration
	Extensions []string
}

// Resolve builds Settings with precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file (may be nil)
// 3. Default values (lowest priority)
//
// Command line flags are applied by the caller on top of the result.
func Resolve(cfg *FileConfig) (*Settings, error) {
	s := &Settings{
		DSN:        DefaultDSN,
		Timeout:    DefaultTimeout,
		Debounce:   DefaultDebounce,
		Extensions: DefaultExtensions,
	}

	if cfg != nil {
		if cfg.Store.DSN != "" {
			s.DSN = cfg.Store.DSN
		}
		if cfg.Fetch.Timeout != "" {
			d, err := time.ParseDuration(cfg.Fetch.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid fetch.timeout %q: %w", cfg.Fetch.Timeout, err)
			}
			s.Timeout = d
		}
		if cfg.Fetch.UserAgent != "" {
			s.UserAgent = cfg.Fetch.UserAgent
		}
		if cfg.Watch.Debounce != "" {
			d, err := time.ParseDuration(cfg.Watch.Debounce)
			if err != nil {
				return nil, fmt.Errorf("invalid watch.debounce %q: %w", cfg.Watch.Debounce, err)
			}
			s.Debounce = d
		}
		if len(cfg.Watch.Extensions) > 0 {
			s.Extensions = cfg.Watch.Extensions
		}
	}

	if val := os.Getenv("STDPAPERS_STORE_DSN"); val != "" {
		s.DSN = val
	}
	if val := os.Getenv("STDPAPERS_FETCH_TIMEOUT"); val != "" {
		d, err := time.ParseDuration(val)
		if err != nil {
			return nil, fmt.Errorf("invalid STDPAPERS_FETCH_TIMEOUT %q: %w", val, err)
		}
		s.Timeout = d
	}
	if val := os.Getenv("STDPAPERS_USER_AGENT"); val != "" {
		s.UserAgent = val
	}

	return s, nil
}
