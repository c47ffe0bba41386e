package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.elastic.co/ecszerolog"
)

// Log formats selectable with LOG_FORMAT.
const (
	FormatConsole = "console"
	FormatECS     = "ecs"
)

// Setup installs the global logger. ECS JSON goes to stdout for log shippers;
// anything else gets a human-readable console writer.
func Setup(format string, debug bool, app string) {
	log.Logger = New(os.Stdout, format, debug, app)
}

// New builds a logger writing to out in the given format.
func New(out io.Writer, format string, debug bool, app string) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(format, FormatECS) {
		return ecszerolog.New(out).With().Str("app", app).Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
		With().Str("app", app).Timestamp().Logger()
}
