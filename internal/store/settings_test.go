package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	_, err := repo.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set("scene", "solar.yaml"))
	require.NoError(t, repo.Set("scene", "binary.yaml"))
	v, err := repo.Get("scene")
	require.NoError(t, err)
	assert.Equal(t, "binary.yaml", v)
}

func TestSettingsRepository_Bool(t *testing.T) {
	repo := newTestStore(t).Settings()

	assert.True(t, repo.Bool(SettingHandControl, true), "missing key should yield default")

	require.NoError(t, repo.SetBool(SettingHandControl, false))
	assert.False(t, repo.Bool(SettingHandControl, true))

	require.NoError(t, repo.Set(SettingHandControl, "maybe"))
	assert.True(t, repo.Bool(SettingHandControl, true), "unparseable value should yield default")
}
