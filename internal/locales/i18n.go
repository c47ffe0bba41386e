package locales

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/language"
)

//go:embed *.json
var localeFS embed.FS

var (
	mu              sync.RWMutex
	bundle          *i18n.Bundle
	defaultLanguage language.Tag
)

// Init loads the embedded message files and sets the default language.
func Init(defaultLangCode string) error {
	tag, err := language.Parse(defaultLangCode)
	if err != nil {
		log.Warn().Err(err).Str("lang", defaultLangCode).Msg("Failed to parse default language, falling back to English")
		tag = language.English
	}

	b := i18n.NewBundle(tag)
	b.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(".")
	if err != nil {
		return fmt.Errorf("failed to read embedded locales: %w", err)
	}

	loaded := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		if _, err := b.LoadMessageFileFS(localeFS, entry.Name()); err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to load message file")
			continue
		}
		loaded++
	}
	if loaded == 0 {
		return fmt.Errorf("no message files loaded from locales")
	}

	mu.Lock()
	bundle = b
	defaultLanguage = tag
	mu.Unlock()

	log.Info().Int("files", loaded).Str("default", tag.String()).Msg("i18n bundle initialized")
	return nil
}

// DefaultLanguage returns the configured default language tag.
func DefaultLanguage() language.Tag {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLanguage
}

// NewLocalizer creates a localizer for the given language preferences,
// e.g. a Telegram user's language_code. The default language is always appended.
func NewLocalizer(langPrefs ...string) *i18n.Localizer {
	mu.RLock()
	defer mu.RUnlock()
	if bundle == nil {
		panic("locales: NewLocalizer called before Init")
	}
	prefs := append(append([]string(nil), langPrefs...), defaultLanguage.String())
	return i18n.NewLocalizer(bundle, prefs...)
}

// GetMessage retrieves and formats a message by its ID, falling back to English
// and finally to the ID itself.
func GetMessage(localizer *i18n.Localizer, msgID string, templateData map[string]interface{}, pluralCount *int) string {
	config := &i18n.LocalizeConfig{
		MessageID:    msgID,
		TemplateData: templateData,
	}
	if pluralCount != nil {
		config.PluralCount = *pluralCount
	}

	msg, err := localizer.Localize(config)
	if err == nil {
		return msg
	}
	log.Error().Err(err).Str("message_id", msgID).Msg("Failed to localize message, falling back to English")

	mu.RLock()
	b := bundle
	mu.RUnlock()
	fallback, fallbackErr := i18n.NewLocalizer(b, language.English.String()).Localize(config)
	if fallbackErr == nil {
		return fallback
	}
	return msgID
}
