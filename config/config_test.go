package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesOptionsOverDefaults(t *testing.T) {
	c, err := Load(WithRootDir("/tmp/mms"), WithRetryInterval(2*time.Second), WithKeepTempFiles(true))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/mms", c.RootDir)
	assert.Equal(t, 2*time.Second, c.RetryInterval)
	assert.True(t, c.KeepTempFiles)
	assert.True(t, c.AtticEnabled) // untouched default survives
}

func TestLoadRejectsEmptyRootDir(t *testing.T) {
	_, err := Load(WithRootDir(""))
	require.Error(t, err)
}

func TestSimSettingsStoreForFallsBackToGlobal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.json")
	doc := `{
		"global": {"user_agent": "global-ua", "size_limit": 300000, "max_pixels": 1000, "allow_dr": true},
		"overrides": {"123456789012345": {"user_agent": "special-ua", "size_limit": 600000, "max_pixels": 2000, "allow_dr": false}}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := NewSimSettingsStore(path, nil)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, "special-ua", s.For("123456789012345").UserAgent)
	assert.Equal(t, "global-ua", s.For("unknown-imsi").UserAgent)
}

func TestSimSettingsStoreWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"global":{"user_agent":"v1"}}`), 0o644))

	s, err := NewSimSettingsStore(path, nil)
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Watch())

	require.NoError(t, os.WriteFile(path, []byte(`{"global":{"user_agent":"v2"}}`), 0o644))

	require.Eventually(t, func() bool {
		return s.For("anyone").UserAgent == "v2"
	}, time.Second, 10*time.Millisecond)
}
