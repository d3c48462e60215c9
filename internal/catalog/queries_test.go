package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Operations(t *testing.T) {
	reg := DefaultRegistry()
	for _, name := range []string{
		OpHasTable, OpCreateTableFeeds, OpCreateTableArticles, OpSelectFeeds,
		OpSelectSubscribedFeeds, OpCountFeeds, OpInsertFeed, OpDeleteFeed,
		OpSubscribeFeed, OpUnsubscribeFeed,
	} {
		assert.Contains(t, reg, name)
	}
}

func TestRender_BindsArguments(t *testing.T) {
	reg := DefaultRegistry()
	hostile := "x'); DROP TABLE feeds; --"

	for _, name := range []string{OpDeleteFeed, OpSubscribeFeed, OpUnsubscribeFeed} {
		stmts, err := reg.Render(name, []string{hostile})
		require.NoError(t, err, name)
		require.Len(t, stmts, 1)
		assert.NotContains(t, stmts[0].SQL, "DROP TABLE", name)
		assert.Contains(t, stmts[0].Args, "%"+hostile+"%", name)
	}
}

func TestRender_MatchesTitleOrLink(t *testing.T) {
	stmts, err := DefaultRegistry().Render(OpDeleteFeed, []string{"go"})
	require.NoError(t, err)
	sql := stmts[0].SQL
	assert.True(t, strings.HasPrefix(sql, "DELETE FROM feeds"))
	assert.Contains(t, sql, "link LIKE ?")
	assert.Contains(t, sql, "title LIKE ?")
	assert.Contains(t, sql, " OR ")
}

func TestRender_Unsubscribe(t *testing.T) {
	stmts, err := DefaultRegistry().Render(OpUnsubscribeFeed, []string{"go"})
	require.NoError(t, err)
	assert.Contains(t, stmts[0].SQL, "UPDATE feeds SET subscribed_at = ?")
}

func TestRender_CreateTables(t *testing.T) {
	reg := DefaultRegistry()

	stmts, err := reg.Render(OpCreateTableFeeds, nil)
	require.NoError(t, err)
	assert.Contains(t, stmts[0].SQL, "CREATE TABLE IF NOT EXISTS feeds")
	assert.False(t, stmts[0].Query)

	stmts, err = reg.Render(OpCreateTableArticles, nil)
	require.NoError(t, err)
	assert.Contains(t, stmts[0].SQL, "REFERENCES articles (id)")
	assert.Contains(t, stmts[0].SQL, "ON DELETE CASCADE")
}

func TestRender_Errors(t *testing.T) {
	reg := DefaultRegistry()

	_, err := reg.Render("nope", nil)
	assert.True(t, errors.Is(err, ErrUnknownOperation))

	_, err = reg.Render(OpSelectFeeds, []string{"unexpected"})
	assert.True(t, errors.Is(err, ErrQueryFailed))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%`, escapeLike("100%"))
	assert.Equal(t, `a\_b`, escapeLike("a_b"))
	assert.Equal(t, `c:\\dir`, escapeLike(`c:\dir`))
	assert.Equal(t, "plain", escapeLike("plain"))
}
