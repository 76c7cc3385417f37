package database

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"yatube/internal/config"
	"yatube/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestDialector(t *testing.T) {
	d, err := Dialector(&config.Config{DBDriver: "postgres", DBHost: "db", DBPort: "5432"})
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = Dialector(&config.Config{DBDriver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	assert.Equal(t, "sqlite", d.Name())

	_, err = Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	cfg := &config.Config{
		Env:                      "test",
		DBDriver:                 "sqlite",
		SQLitePath:               filepath.Join(t.TempDir(), "data", "yatube.db"),
		DBMaxOpenConns:           1,
		DBMaxIdleConns:           1,
		DBConnMaxLifetimeMinutes: 1,
	}
	db, err := Connect(cfg)
	require.NoError(t, err)
	defer func() { _ = Close(db) }()

	require.NoError(t, Ping(context.Background(), db))
	for _, m := range PersistentModels() {
		assert.True(t, db.Migrator().HasTable(m))
	}

	u := models.User{Username: "leo", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	assert.NotZero(t, u.ID)
}

type recordingHandler struct {
	slog.Handler
	messages []string
}

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func TestGormLogger_Trace(t *testing.T) {
	h := &recordingHandler{}
	l := NewGormLogger(slog.New(h))
	sql := func() (string, int64) { return "SELECT 1", 1 }

	l.Trace(context.Background(), time.Now(), sql, gorm.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), sql, errors.New("boom"))
	l.Trace(context.Background(), time.Now().Add(-time.Second), sql, nil)
	l.Trace(context.Background(), time.Now(), sql, nil)
	l.LogMode(logger.Silent).Trace(context.Background(), time.Now(), sql, errors.New("hidden"))

	assert.Equal(t, "GORM query error|GORM slow query", strings.Join(h.messages, "|"))
}
