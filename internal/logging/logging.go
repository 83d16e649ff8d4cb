// Package logging configures zerolog for the outreach backend.
package logging

import (
    "os"
    "strings"
    "time"

    "github.com/rs/zerolog"
    "github.com/rs/zerolog/log"
)

// Setup configures the global logger. Pretty console output is used when
// stdout is a terminal-ish environment (LOG_FORMAT=console), JSON otherwise.
func Setup(level string) {
    lvl, err := zerolog.ParseLevel(strings.ToLower(level))
    if err != nil || level == "" {
        lvl = zerolog.InfoLevel
    }
    zerolog.SetGlobalLevel(lvl)
    zerolog.TimeFieldFormat = time.RFC3339

    if os.Getenv("LOG_FORMAT") == "console" {
        log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
    }
}

// Component returns a logger tagged with the owning component name.
func Component(name string) zerolog.Logger {
    return log.With().Str("component", name).Logger()
}
