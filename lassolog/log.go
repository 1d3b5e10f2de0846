// Package lassolog is a thin facade over zerolog, the way edgectl's
// smplog wraps it, so the rest of the module never imports zerolog
// directly and log call sites stay terse.
package lassolog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger with the field names Lasso call sites
// use: cell, opcode, state, ticks.
type Logger struct {
	z zerolog.Logger
}

// New returns a Logger writing human-readable output to w (or stderr
// if w is nil).
func New(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return Logger{z: zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000"}).With().Timestamp().Logger()}
}

// Nop returns a Logger that discards everything, for tests.
func Nop() Logger { return Logger{z: zerolog.Nop()} }

func (l Logger) Debug(msg string) { l.z.Debug().Msg(msg) }
func (l Logger) Info(msg string)  { l.z.Info().Msg(msg) }
func (l Logger) Warn(msg string)  { l.z.Warn().Msg(msg) }
func (l Logger) Error(msg string, err error) { l.z.Error().Err(err).Msg(msg) }

// WithOpcode returns a Logger whose subsequent events carry an opcode field.
func (l Logger) WithOpcode(op byte) Logger {
	return Logger{z: l.z.With().Str("opcode", string(rune(op))).Logger()}
}

// WithCell returns a Logger whose subsequent events carry a cell field.
func (l Logger) WithCell(name string) Logger {
	return Logger{z: l.z.With().Str("cell", name).Logger()}
}

// WithState returns a Logger whose subsequent events carry a scheduler
// state field.
func (l Logger) WithState(state string) Logger {
	return Logger{z: l.z.With().Str("state", state).Logger()}
}

// WithTicks returns a Logger whose subsequent events carry a ticks field.
func (l Logger) WithTicks(n int) Logger {
	return Logger{z: l.z.With().Int("ticks", n).Logger()}
}
