package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newGormObserver(t *testing.T, level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	t.Helper()
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func settlementQuery() (string, int64) {
	return "SELECT * FROM settlements WHERE store_id = $1 AND status = 'DRAFT'", 3
}

func TestGormLogger_LogMode_ClonesWithoutMutating(t *testing.T) {
	gl, _ := newGormObserver(t, gormlogger.Info)

	cloned := gl.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gl.logLevel)
	warned, ok := cloned.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, warned.logLevel)
}

func TestGormLogger_MessageLevels(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Info)

	gl.Info(context.Background(), "migrating %s", "escrow_accounts")
	gl.Warn(context.Background(), "replica lag %dms", 40)
	gl.Error(context.Background(), "connection lost")

	logs := recorded.All()
	require.Len(t, logs, 3)
	assert.Equal(t, "migrating escrow_accounts", logs[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[2].Level)
}

func TestGormLogger_MessagesSuppressedBelowLevel(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Error)

	gl.Info(context.Background(), "migrating %s", "invoices")
	gl.Warn(context.Background(), "replica lag")

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_Query(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Info)

	gl.Trace(context.Background(), time.Now(), settlementQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "sql query", logs[0].Message)
	assert.Equal(t, zapcore.DebugLevel, logs[0].Level)

	fields := logs[0].ContextMap()
	assert.Contains(t, fields["sql"], "FROM settlements")
	assert.EqualValues(t, 3, fields["rows"])
}

func TestGormLogger_Trace_Error(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), settlementQuery, errors.New("deadlock detected"))

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, "sql error", logs[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
}

func TestGormLogger_Trace_RecordNotFoundIgnored(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Error)

	gl.Trace(context.Background(), time.Now(), settlementQuery, gormlogger.ErrRecordNotFound)

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_RecordNotFoundLoggedWhenNotIgnored(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Error, WithIgnoreRecordNotFoundError(false))

	gl.Trace(context.Background(), time.Now(), settlementQuery, gormlogger.ErrRecordNotFound)

	require.Len(t, recorded.All(), 1)
}

func TestGormLogger_Trace_SlowQuery(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Warn, WithSlowThreshold(time.Millisecond))

	gl.Trace(context.Background(), time.Now().Add(-time.Second), settlementQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	assert.Contains(t, logs[0].Message, "slow sql")
}

func TestGormLogger_Trace_Silent(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Silent)

	gl.Trace(context.Background(), time.Now(), settlementQuery, errors.New("deadlock detected"))

	assert.Empty(t, recorded.All())
}

func TestGormLogger_Trace_CarriesTraceID(t *testing.T) {
	gl, recorded := newGormObserver(t, gormlogger.Info)

	tp := sdktrace.NewTracerProvider()
	defer tp.Shutdown(context.Background())
	ctx, span := tp.Tracer("test").Start(context.Background(), "SettlementService.Generate")
	defer span.End()

	gl.Trace(ctx, time.Now(), settlementQuery, nil)

	logs := recorded.All()
	require.Len(t, logs, 1)
	assert.Equal(t, span.SpanContext().TraceID().String(), logs[0].ContextMap()["trace_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
