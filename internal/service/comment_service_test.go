package service

import (
	"context"
	"testing"

	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommentService_Add(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	svc := NewCommentService(repository.NewPostRepository(db), repository.NewCommentRepository(db))
	ctx := context.Background()

	leo := testutil.CreateUser(t, db, "leo")
	post := testutil.CreatePost(t, db, leo, nil, "post")

	c, err := svc.Add(ctx, AddCommentInput{PostID: post.ID, AuthorID: leo.ID, Text: "great"})
	require.NoError(t, err)
	assert.Equal(t, post.ID, c.PostID)

	_, err = svc.Add(ctx, AddCommentInput{PostID: post.ID, AuthorID: leo.ID, Text: "  "})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = svc.Add(ctx, AddCommentInput{PostID: 999, AuthorID: leo.ID, Text: "lost"})
	assert.True(t, models.IsNotFound(err))

	_, err = svc.Add(ctx, AddCommentInput{PostID: post.ID, Text: "anon"})
	assert.True(t, models.HasCode(err, models.CodeUnauthorized))

	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
