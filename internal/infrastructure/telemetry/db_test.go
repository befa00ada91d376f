package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/stocksync/backend/internal/infrastructure/telemetry"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := openSQLite(t)

	err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, db.Callback().Query().Get("stocksync:start_query"))
}

func TestRegisterDBTracing_EmitsSpans(t *testing.T) {
	sr := setupTestTracer(t)
	db := openSQLite(t)

	err := telemetry.RegisterDBTracing(db, telemetry.DBTracingConfig{
		Enabled:         true,
		SlowQueryThresh: time.Second,
		DBSystem:        "sqlite",
	}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, db.Callback().Query().Get("stocksync:start_query"))
	assert.NotNil(t, db.Callback().Raw().Get("stocksync:finish_raw"))

	ctx, parent := telemetry.StartSpan(context.Background(), "test")
	require.NoError(t, db.WithContext(ctx).Exec("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT)").Error)
	require.NoError(t, db.WithContext(ctx).Exec("INSERT INTO items (name) VALUES (?)", "mug").Error)
	telemetry.EndSpan(parent, nil)

	spans := sr.Ended()
	assert.Greater(t, len(spans), 1)
}
