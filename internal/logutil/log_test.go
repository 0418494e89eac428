package logutil

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestGetOrDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	ctx := WithLogger(context.Background(), logger)
	l := GetOrDefault(ctx)
	l.Info().Str("k", "v").Msg("hello")

	assert.Contains(t, buf.String(), `"k":"v"`)
	assert.Contains(t, buf.String(), `"message":"hello"`)
}

func TestSetup_UnknownLevelFallsBackToInfo(t *testing.T) {
	l := Setup("chatty", false)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())

	l = Setup("debug", false)
	assert.Equal(t, zerolog.DebugLevel, l.GetLevel())
}
