package logging

import (
    "bytes"
    "encoding/json"
    "testing"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestComponentTagsLogLines(t *testing.T) {
    var buf bytes.Buffer
    prev := log.Logger
    log.Logger = zerolog.New(&buf)
    defer func() { log.Logger = prev }()

    logger := Component("scheduler")
    logger.Info().Msg("cycle complete")

    var line map[string]any
    require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
    assert.Equal(t, "scheduler", line["component"])
    assert.Equal(t, "cycle complete", line["message"])
}

func TestSetupFallsBackToInfoLevel(t *testing.T) {
    Setup("not-a-level")
    assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

    Setup("debug")
    assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}
