package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blockpad/internal/config"
)

type cli struct {
	config.Config `embed:""`
}

func parse(t *testing.T, args ...string) config.Config {
	t.Helper()
	var c cli
	parser, err := kong.New(&c, kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return c.Config
}

func TestKongDefaultsMatchDefault(t *testing.T) {
	got := parse(t)
	want := config.Default()
	assert.Equal(t, want.Backend, got.Backend)
	assert.Equal(t, want.SyncSchedule, got.SyncSchedule)
	assert.Equal(t, want.PersistTimeout, got.PersistTimeout)
	assert.Equal(t, want.MongoDatabase, got.MongoDatabase)
}

func TestEnvAndFlags(t *testing.T) {
	t.Setenv("BLOCKPAD_BACKEND", "postgres")
	t.Setenv("BLOCKPAD_DSN", "postgres://localhost/blockpad")

	got := parse(t, "--persist-timeout=3s")
	assert.Equal(t, config.BackendPostgres, got.Backend)
	assert.Equal(t, "postgres://localhost/blockpad", got.DSN)
	assert.Equal(t, 3*time.Second, got.PersistTimeout)
	assert.NoError(t, got.Validate())
}

func TestValidate(t *testing.T) {
	c := config.Default()
	require.NoError(t, c.Validate())

	c.Backend = config.BackendMongo
	assert.Error(t, c.Validate(), "mongo needs a dsn")

	c.Backend = "cassandra"
	c.DSN = "x"
	assert.Error(t, c.Validate())
}

func TestPaths(t *testing.T) {
	c := config.Default()
	c.DataDir = t.TempDir()
	assert.Equal(t, filepath.Join(c.DataDir, "blockpad.db"), c.SQLitePath())

	c.DSN = "/tmp/other.db"
	assert.Equal(t, "/tmp/other.db", c.SQLitePath())

	c.DataDir = "~/notes"
	assert.NotContains(t, c.ResolvedDataDir(), "~")
}
