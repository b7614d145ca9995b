package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunbeam-telemetry/sunbeam/internal/config"
	"github.com/sunbeam-telemetry/sunbeam/internal/models"
)

func TestOpen_InvalidDriver(t *testing.T) {
	l, err := Open(config.LedgerConfig{Driver: "invalid"}, nil)
	assert.Error(t, err)
	assert.Nil(t, l)
	assert.Contains(t, err.Error(), "unsupported ledger driver")
}

func TestOpen_SQLiteMigratesRunRecords(t *testing.T) {
	l, err := Open(config.LedgerConfig{Driver: "sqlite", DSN: ":memory:", LogLevel: "warn"}, nil)
	require.NoError(t, err)
	require.NotNil(t, l)
	defer l.Close()

	assert.True(t, l.db.Migrator().HasTable(&models.RunRecord{}))
}

func TestStartAndFinishRun_Success(t *testing.T) {
	l, err := Open(config.LedgerConfig{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	rec, err := l.StartRun(ctx, "evaluation-run", []string{"ingress", "power"})
	require.NoError(t, err)
	assert.False(t, rec.ID.IsZero())
	assert.Equal(t, models.RunStatusRunning, rec.Status)
	assert.Equal(t, "ingress,power", rec.StagesExecuted)

	require.NoError(t, l.FinishRun(ctx, rec, nil))
	assert.Equal(t, models.RunStatusSucceeded, rec.Status)
	assert.NotNil(t, rec.CompletedAt)
}

func TestStartAndFinishRun_Failure(t *testing.T) {
	l, err := Open(config.LedgerConfig{Driver: "sqlite", DSN: ":memory:"}, nil)
	require.NoError(t, err)
	defer l.Close()

	ctx := context.Background()
	rec, err := l.StartRun(ctx, "evaluation-run", []string{"ingress"})
	require.NoError(t, err)

	require.NoError(t, l.FinishRun(ctx, rec, errors.New("ingress: boom")))
	assert.Equal(t, models.RunStatusFailed, rec.Status)
	assert.Equal(t, "ingress: boom", rec.LastError)
}
