package persist

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsEmbedded(t *testing.T) {
	files, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, f := range files {
		body, err := fs.ReadFile(migrations, f)
		require.NoError(t, err)
		assert.True(t, strings.Contains(string(body), "-- +goose Up"), f)
		assert.True(t, strings.Contains(string(body), "-- +goose Down"), f)
	}
}
