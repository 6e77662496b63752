package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/firasghr/GoImpersonate/logger"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, logger.LevelInfo)
	l.Debug("hidden")
	l.Infof("shown %d", 1)
	l.Error("failure", "profile", "chrome_124")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 1")
	assert.Contains(t, out, "profile=chrome_124")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, logger.LevelError)
	l.Info("before")
	l.SetLevel(logger.LevelDebug)
	l.Debugf("after %s", "change")

	out := buf.String()
	assert.NotContains(t, out, "before")
	assert.Contains(t, out, "after change")
}

func TestWithAddsAttrs(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(&buf, logger.LevelInfo).With("conn", 7)
	l.Info("dial")
	assert.True(t, strings.Contains(buf.String(), "conn=7"), buf.String())
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logger.Level{
		"debug": logger.LevelDebug,
		"INFO":  logger.LevelInfo,
		"":      logger.LevelInfo,
		"error": logger.LevelError,
	} {
		got, err := logger.ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := logger.ParseLevel("verbose")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	// Must not panic.
	logger.Discard().Error("dropped")
}
