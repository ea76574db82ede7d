package log

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logrus.Level
		wantErr bool
	}{
		{"", DefaultLevel, false},
		{"debug", logrus.DebugLevel, false},
		{" INFO ", logrus.InfoLevel, false},
		{"warning", logrus.WarnLevel, false},
		{"loud", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New("info", &buf)
	require.NoError(t, err)

	logger.WithField("request_id", "abc").Info("request stopped")
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "request stopped")
	assert.Contains(t, out, "request_id=abc")
	assert.NotContains(t, out, "hidden")

	_, err = New("nope", nil)
	assert.Error(t, err)
}
