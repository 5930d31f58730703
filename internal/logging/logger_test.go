package logging_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpad/internal/logging"
)

func TestLog(t *testing.T) {
	buff := bytes.NewBuffer(nil)
	data, err := logging.New().FromWriter(buff).Make()
	require.NoError(t, err)
	require.Nil(t, data.LogFile)

	require.Equal(t, 0, buff.Len())
	data.Logger.Info().Msg("Test")
	assert.Contains(t, buff.String(), "Test")
}

func TestLog_LevelFilters(t *testing.T) {
	buff := bytes.NewBuffer(nil)
	data, err := logging.New().FromWriter(buff).Level("warn").Make()
	require.NoError(t, err)

	data.Logger.Info().Msg("quiet")
	assert.Zero(t, buff.Len())
	data.Logger.Warn().Msg("loud")
	assert.Contains(t, buff.String(), "loud")
}

func TestLog_FileAndWriter(t *testing.T) {
	buff := bytes.NewBuffer(nil)
	path := filepath.Join(t.TempDir(), "logs", "blockpad.log")

	data, err := logging.New().FromWriter(buff).FromPath(path).Make()
	require.NoError(t, err)
	data.Logger.Info().Str("component", "test").Msg("both")
	require.NoError(t, data.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"component":"test"`)
	assert.Contains(t, buff.String(), "both")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logging.ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logging.ParseLevel("chatty"))
}
