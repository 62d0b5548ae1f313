package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmraya/swordfish-core/internal/adapters/driven/storage/memory"
	"github.com/rmraya/swordfish-core/internal/core/domain"
)

func TestLoadStoreSettings_Defaults(t *testing.T) {
	assert.Equal(t, domain.DefaultStoreSettings(), LoadStoreSettings(nil))
	assert.Equal(t, domain.DefaultStoreSettings(), LoadStoreSettings(memory.NewConfigStore()))
}

func TestLoadStoreSettings_ReadsAndClamps(t *testing.T) {
	cfg := memory.NewConfigStore()
	_ = cfg.Set(keyAutoConfirm, true)
	_ = cfg.Set(keyPenalization, 150)
	_ = cfg.Set(keyTagPenalty, -3)
	_ = cfg.Set(keyCommitEvery, 10)
	_ = cfg.Set(keyPropagationThreshold, 75)
	_ = cfg.Set(keyBatchSize, 0)
	_ = cfg.Set(keySeparators, "/")

	s := LoadStoreSettings(cfg)
	assert.True(t, s.AutoConfirm)
	assert.Equal(t, 100, s.Penalization)
	assert.Equal(t, 0, s.TagPenalty)
	assert.Equal(t, minCommitEvery, s.CommitEvery)
	assert.Equal(t, 75, s.PropagationThreshold)
	assert.Equal(t, domain.DefaultBatchSize, s.BatchSize)
	assert.Equal(t, "/", s.Separators)

	_ = cfg.Set(keyCommitEvery, 5000)
	assert.Equal(t, maxCommitEvery, LoadStoreSettings(cfg).CommitEvery)
}

func TestLoadStoreSettings_ExplicitZeroTagPenalty(t *testing.T) {
	cfg := memory.NewConfigStore()
	_ = cfg.Set(keyTagPenalty, 0)

	assert.Equal(t, 0, LoadStoreSettings(cfg).TagPenalty)
}

func TestSaveStoreSettings_RoundTrip(t *testing.T) {
	cfg := memory.NewConfigStore()
	want := domain.StoreSettings{
		AutoConfirm:          true,
		Penalization:         5,
		TagPenalty:           2,
		CommitEvery:          800,
		PropagationThreshold: 70,
		BatchSize:            25,
		Separators:           "|",
	}

	require.NoError(t, SaveStoreSettings(cfg, want))
	assert.Equal(t, want, LoadStoreSettings(cfg))
}

func TestLoadTaskSettings(t *testing.T) {
	s := LoadTaskSettings(nil)
	assert.Equal(t, domain.DefaultTaskWorkers, s.Workers)
	assert.Equal(t, domain.DefaultTaskRetention, s.Retention)

	cfg := memory.NewConfigStore()
	require.NoError(t, SaveTaskSettings(cfg, domain.TaskSettings{Workers: 4, Retention: 90 * time.Second}))

	s = LoadTaskSettings(cfg)
	assert.Equal(t, 4, s.Workers)
	assert.Equal(t, 90*time.Second, s.Retention)
}

func TestSettingsService_Set(t *testing.T) {
	cfg := memory.NewConfigStore()
	svc := NewSettingsService(cfg)

	require.NoError(t, svc.Set("store.auto_confirm", "true"))
	require.NoError(t, svc.Set("store.batch_size", "25"))
	require.NoError(t, svc.Set("tasks.retention", "90s"))
	require.NoError(t, svc.Set("diff.separators", " /"))

	assert.True(t, svc.Store().AutoConfirm)
	assert.Equal(t, 25, svc.Store().BatchSize)
	assert.Equal(t, " /", svc.Store().Separators)
	assert.Equal(t, 90*time.Second, svc.Tasks().Retention)
}

func TestSettingsService_SetInvalid(t *testing.T) {
	svc := NewSettingsService(memory.NewConfigStore())

	tests := []struct {
		key   string
		value string
	}{
		{"store.unknown", "1"},
		{"store.auto_confirm", "maybe"},
		{"store.penalization", "ten"},
		{"store.tag_penalty", "-1"},
		{"tasks.retention", "forever"},
		{"tasks.retention", "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			assert.ErrorIs(t, svc.Set(tt.key, tt.value), domain.ErrInvalidInput)
		})
	}
	assert.Equal(t, domain.DefaultStoreSettings(), svc.Store())
}

func TestSettingsService_KeysSorted(t *testing.T) {
	keys := NewSettingsService(memory.NewConfigStore()).Keys()

	assert.Len(t, keys, len(settingKinds))
	assert.IsNonDecreasing(t, keys)
	assert.Contains(t, keys, "store.propagation_threshold")
}
