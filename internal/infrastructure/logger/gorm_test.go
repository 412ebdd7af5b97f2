package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestGormLogger_Trace(t *testing.T) {
	t.Run("logs errors with sql", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)

		ctx := WithRequestID(context.Background(), "req-9")
		l.Trace(ctx, time.Now(), sqlFn("SELECT 1", 0), errors.New("boom"))

		entries := recorded.FilterMessage("SQL Error").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, "SELECT 1", entries[0].ContextMap()["sql"])
		assert.Equal(t, "req-9", entries[0].ContextMap()["request_id"])
	})

	t.Run("ignores record not found", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn)

		l.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), gormlogger.ErrRecordNotFound)

		assert.Equal(t, 0, recorded.Len())
	})

	t.Run("warns on slow queries", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Warn, WithSlowThreshold(time.Millisecond))

		l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn("UPDATE x", 1), nil)

		assert.Len(t, recorded.FilterMessage("Slow SQL").All(), 1)
	})

	t.Run("silent logs nothing", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Info).LogMode(gormlogger.Silent)

		l.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 0), errors.New("boom"))

		assert.Equal(t, 0, recorded.Len())
	})

	t.Run("info level logs queries at debug", func(t *testing.T) {
		core, recorded := observer.New(zapcore.DebugLevel)
		l := NewGormLogger(zap.New(core), gormlogger.Info, WithSlowThreshold(0))

		l.Trace(context.Background(), time.Now(), sqlFn("SELECT 2", 1), nil)

		assert.Len(t, recorded.FilterMessage("SQL Query").All(), 1)
	})
}

func TestMapGormLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Silent, MapGormLogLevel("silent"))
	assert.Equal(t, gormlogger.Error, MapGormLogLevel("error"))
	assert.Equal(t, gormlogger.Info, MapGormLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel("warn"))
	assert.Equal(t, gormlogger.Warn, MapGormLogLevel(""))
}
