package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

// Test Plan for logging.New:
// - default level is Info
// - verbose enables Debug
// - quiet suppresses everything below Error
// - verbose wins over quiet

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		verbose  bool
		quiet    bool
		enabled  zapcore.Level
		disabled zapcore.Level
	}{
		{"default", false, false, zapcore.InfoLevel, zapcore.DebugLevel},
		{"verbose", true, false, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"quiet", false, true, zapcore.ErrorLevel, zapcore.WarnLevel},
		{"verbose and quiet", true, true, zapcore.DebugLevel, zapcore.DebugLevel - 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			logger, err := New(tt.verbose, tt.quiet)
			require.NoError(t, err)
			defer func() { _ = logger.Sync() }()

			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.disabled))
		})
	}
}
