package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsOrderedMigrations(t *testing.T) {
	files, err := fs.Glob(FS, "*.up.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"001_create_users.up.sql",
		"002_create_posts.up.sql",
		"003_create_comments.up.sql",
		"004_create_votes.up.sql",
	}, files)
}
