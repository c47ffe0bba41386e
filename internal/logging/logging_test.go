package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	t.Run("ECS", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, FormatECS, false, "console")
		logger.Info().Str("collection", "projects").Msg("Loaded")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Loaded", entry["message"])
		assert.Equal(t, "console", entry["app"])
		assert.Equal(t, "projects", entry["collection"])
		assert.Contains(t, entry, "ecs.version")
	})

	t.Run("ConsoleDebug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, FormatConsole, true, "console")
		logger.Debug().Msg("verbose")

		assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
		assert.Contains(t, buf.String(), "verbose")
	})

	t.Run("InfoHidesDebug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, FormatConsole, false, "console")
		logger.Debug().Msg("hidden")

		assert.Empty(t, buf.String())
	})
}
