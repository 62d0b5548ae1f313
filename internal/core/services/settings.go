package services

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rmraya/swordfish-core/internal/core/domain"
	"github.com/rmraya/swordfish-core/internal/core/ports/driven"
	"github.com/rmraya/swordfish-core/internal/core/ports/driving"
)

// Config keys for store and task settings.
const (
	keyAutoConfirm          = "store.auto_confirm"
	keyPenalization         = "store.penalization"
	keyTagPenalty           = "store.tag_penalty"
	keyCommitEvery          = "store.commit_every"
	keyPropagationThreshold = "store.propagation_threshold"
	keyBatchSize            = "store.batch_size"
	keySeparators           = "diff.separators"
	keyTaskWorkers          = "tasks.workers"
	keyTaskRetention        = "tasks.retention"
)

// Bulk-load commit interval bounds.
const (
	minCommitEvery = 500
	maxCommitEvery = 1000
)

// LoadStoreSettings reads store settings from configuration, falling back
// to the defaults for keys that are unset or out of range.
func LoadStoreSettings(cfg driven.ConfigStore) domain.StoreSettings {
	s := domain.DefaultStoreSettings()
	if cfg == nil {
		return s
	}

	s.AutoConfirm = getBool(cfg, keyAutoConfirm, s.AutoConfirm)
	s.Penalization = clamp(getInt(cfg, keyPenalization, s.Penalization), 0, 100)
	s.TagPenalty = clamp(getInt(cfg, keyTagPenalty, s.TagPenalty), 0, 100)
	s.CommitEvery = clamp(getInt(cfg, keyCommitEvery, s.CommitEvery), minCommitEvery, maxCommitEvery)
	s.PropagationThreshold = clamp(getInt(cfg, keyPropagationThreshold, s.PropagationThreshold), 0, 100)
	if n := getInt(cfg, keyBatchSize, s.BatchSize); n > 0 {
		s.BatchSize = n
	}
	s.Separators = cfg.GetString(keySeparators)
	return s
}

// LoadTaskSettings reads the task pool settings from configuration.
func LoadTaskSettings(cfg driven.ConfigStore) domain.TaskSettings {
	s := domain.TaskSettings{
		Workers:   domain.DefaultTaskWorkers,
		Retention: domain.DefaultTaskRetention,
	}
	if cfg == nil {
		return s
	}
	if n := cfg.GetInt(keyTaskWorkers); n > 0 {
		s.Workers = n
	}
	if d := cfg.GetDuration(keyTaskRetention); d > 0 {
		s.Retention = d
	}
	return s
}

// SaveStoreSettings writes store settings to configuration.
func SaveStoreSettings(cfg driven.ConfigStore, s domain.StoreSettings) error {
	values := []struct {
		key string
		val any
	}{
		{keyAutoConfirm, s.AutoConfirm},
		{keyPenalization, s.Penalization},
		{keyTagPenalty, s.TagPenalty},
		{keyCommitEvery, s.CommitEvery},
		{keyPropagationThreshold, s.PropagationThreshold},
		{keyBatchSize, s.BatchSize},
	}
	for _, v := range values {
		if err := cfg.Set(v.key, v.val); err != nil {
			return err
		}
	}
	if s.Separators != "" {
		return cfg.Set(keySeparators, s.Separators)
	}
	return nil
}

// SaveTaskSettings writes task pool settings to configuration.
func SaveTaskSettings(cfg driven.ConfigStore, s domain.TaskSettings) error {
	if err := cfg.Set(keyTaskWorkers, s.Workers); err != nil {
		return err
	}
	return cfg.Set(keyTaskRetention, s.Retention.String())
}

// Helper functions for reading config with defaults.

func getInt(cfg driven.ConfigStore, key string, defaultVal int) int {
	if _, exists := cfg.Get(key); !exists {
		return defaultVal
	}
	return cfg.GetInt(key)
}

func getBool(cfg driven.ConfigStore, key string, defaultVal bool) bool {
	if _, exists := cfg.Get(key); !exists {
		return defaultVal
	}
	return cfg.GetBool(key)
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// ==================== SettingsService ====================

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// settingKinds maps every accepted key to the type of its value.
var settingKinds = map[string]string{
	keyAutoConfirm:          "bool",
	keyPenalization:         "int",
	keyTagPenalty:           "int",
	keyCommitEvery:          "int",
	keyPropagationThreshold: "int",
	keyBatchSize:            "int",
	keySeparators:           "string",
	keyTaskWorkers:          "int",
	keyTaskRetention:        "duration",
}

// SettingsService exposes store and task settings over a config store.
type SettingsService struct {
	cfg driven.ConfigStore
}

// NewSettingsService creates a settings service backed by cfg.
func NewSettingsService(cfg driven.ConfigStore) *SettingsService {
	return &SettingsService{cfg: cfg}
}

// Store returns the effective segment store settings.
func (s *SettingsService) Store() domain.StoreSettings {
	return LoadStoreSettings(s.cfg)
}

// Tasks returns the effective task pool settings.
func (s *SettingsService) Tasks() domain.TaskSettings {
	return LoadTaskSettings(s.cfg)
}

// Keys lists the configuration keys Set accepts, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set parses value according to the type of key and persists it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("unknown setting %q: %w", key, domain.ErrInvalidInput)
	}

	var v any
	switch kind {
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false: %w", key, domain.ErrInvalidInput)
		}
		v = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s expects a non-negative integer: %w", key, domain.ErrInvalidInput)
		}
		v = n
	case "duration":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%s expects a positive duration such as 10m: %w", key, domain.ErrInvalidInput)
		}
		v = d.String()
	default:
		v = value
	}
	if err := s.cfg.Set(key, v); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}
