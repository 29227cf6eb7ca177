package log_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknode/starknode/libs/log"
)

func TestNewDefaultLogger(t *testing.T) {
	testCases := map[string]struct {
		format    string
		level     string
		expectErr bool
	}{
		"invalid format": {
			format:    "foo",
			level:     log.LogLevelInfo,
			expectErr: true,
		},
		"invalid level": {
			format:    log.LogFormatJSON,
			level:     "foo",
			expectErr: true,
		},
		"valid format and level": {
			format:    log.LogFormatJSON,
			level:     log.LogLevelInfo,
			expectErr: false,
		},
		"plain format": {
			format:    log.LogFormatPlain,
			level:     log.LogLevelDebug,
			expectErr: false,
		},
	}

	for name, tc := range testCases {
		tc := tc

		t.Run(name, func(t *testing.T) {
			_, err := log.NewDefaultLogger(tc.format, tc.level)
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := log.NewLogger(&buf, log.LogFormatJSON, log.LogLevelInfo)
	require.NoError(t, err)

	logger.With("module", "pendingsync").Info("found pending block", "parent", "0x1234")
	logger.Debug("dropped below level")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "found pending block", entry["message"])
	require.Equal(t, "pendingsync", entry["module"])
	require.Equal(t, "0x1234", entry["parent"])
	require.Equal(t, "info", entry["level"])
}

func TestOverrideWithNewLogger(t *testing.T) {
	logger := log.NewNopLogger()
	require.NoError(t, log.OverrideWithNewLogger(logger, log.LogFormatJSON, log.LogLevelDebug))
	require.Error(t, log.OverrideWithNewLogger(logger, "yaml", log.LogLevelDebug))
	require.Error(t, log.OverrideWithNewLogger(struct{ log.Logger }{logger}, log.LogFormatJSON, log.LogLevelInfo))
}
