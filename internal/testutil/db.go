// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"fmt"
	"testing"
	"time"

	"yatube/internal/database"
	"yatube/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database private to the test.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection would otherwise see its own empty database.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// Password is the plain-text password of every user made by CreateUser.
const Password = "s3cret-pass"

var passwordHash []byte

// CreateUser inserts a user with the shared test password.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	if passwordHash == nil {
		h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
		require.NoError(t, err)
		passwordHash = h
	}
	u := &models.User{Username: username, Email: username + "@example.com", Password: string(passwordHash)}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateStaff inserts a user with the staff flag set.
func CreateStaff(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := CreateUser(t, db, username)
	require.NoError(t, db.Model(u).Update("is_staff", true).Error)
	u.IsStaff = true
	return u
}

// CreateGroup inserts a group titled after slug.
func CreateGroup(t *testing.T, db *gorm.DB, slug string) *models.Group {
	t.Helper()
	g := &models.Group{Title: "Group " + slug, Slug: slug, Description: "about " + slug}
	require.NoError(t, db.Create(g).Error)
	return g
}

// CreatePost inserts a post; group may be nil.
func CreatePost(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, db.Omit("Author", "Group").Create(p).Error)
	return p
}

// CreatePostAt inserts a post published at the given time.
func CreatePostAt(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, text string, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{Text: text, AuthorID: author.ID, PubDate: at}
	if group != nil {
		p.GroupID = &group.ID
	}
	require.NoError(t, db.Omit("Author", "Group").Create(p).Error)
	return p
}

// CreatePosts inserts n posts with strictly increasing pub dates so ordering
// is deterministic. The last one returned is the newest.
func CreatePosts(t *testing.T, db *gorm.DB, author *models.User, group *models.Group, n int) []*models.Post {
	t.Helper()
	base := time.Now().Add(-time.Duration(n) * time.Minute)
	posts := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		p := &models.Post{
			Text:     fmt.Sprintf("post number %d", i),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Minute),
		}
		if group != nil {
			p.GroupID = &group.ID
		}
		require.NoError(t, db.Omit("Author", "Group").Create(p).Error)
		posts = append(posts, p)
	}
	return posts
}
