package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(files, "*.sql")
	require.NoError(t, err)

	ups, downs := 0, 0
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups++
		case strings.HasSuffix(n, ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs, "every migration needs a down file")

	src, err := iofs.New(files, ".")
	require.NoError(t, err)
	defer src.Close()
	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
	next, err := src.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)

	body, err := fs.ReadFile(files, "0001_init.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "matches_active_pair_key")

	body, err = fs.ReadFile(files, "0002_event_timezone.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "timezone")
}
