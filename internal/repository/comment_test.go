package repository

import (
	"context"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentRepository_ListNewestFirst(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	repo := NewCommentRepository(db)
	ctx := context.Background()

	author := testutil.CreateUser(t, db, "leo")
	post := testutil.CreatePost(t, db, author, nil, "post")

	older := &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "older", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Comment{PostID: post.ID, AuthorID: author.ID, Text: "newer"}
	require.NoError(t, repo.Create(ctx, older))
	require.NoError(t, repo.Create(ctx, newer))

	list, err := repo.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "newer", list[0].Text)
	assert.Equal(t, "leo", list[0].Author.Username)

	empty, err := repo.ListByPost(ctx, post.ID+1)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
