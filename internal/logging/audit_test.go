package logging_test

import (
	"bufio"
	"os"
	"path/filepath"
	"testing"

	"cogc/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLoggerWritesOneJSONLinePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	al, err := logging.NewAuditLogger(path)
	require.NoError(t, err)
	defer al.Close()

	require.NoError(t, al.Log(logging.AuditEvent{
		EventType: logging.AuditPipelinePhaseStart,
		AppID:     "widget-app",
		Target:    "lowering",
		Success:   true,
	}))
	require.NoError(t, al.Log(logging.AuditEvent{
		EventType: logging.AuditRepairIteration,
		AppID:     "widget-app",
		DurationMs: 120,
		Success:    false,
	}))
	require.NoError(t, al.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lines := 0
	for scanner.Scan() {
		lines++
		assert.Contains(t, scanner.Text(), `"mangle"`)
	}
	assert.Equal(t, 2, lines)
}

func TestAuditLoggerRejectsWriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	al, err := logging.NewAuditLogger(path)
	require.NoError(t, err)
	require.NoError(t, al.Close())

	err = al.Log(logging.AuditEvent{EventType: logging.AuditConvergence, AppID: "a"})
	assert.Error(t, err)
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := logging.NewLogger("ludicrous", "json")
	assert.Error(t, err)
}

func TestNewLoggerAcceptsKnownLevels(t *testing.T) {
	for _, lvl := range []string{"debug", "info", "warn", "error"} {
		l, err := logging.NewLogger(lvl, "json")
		require.NoError(t, err)
		assert.NotNil(t, l)
	}
}
