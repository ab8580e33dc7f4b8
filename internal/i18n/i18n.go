// Package i18n provides the localized message catalogue for user-facing bot
// replies. Messages live in the embedded l10n.json; lookups fall back to
// English when the configured language has no translation.
package i18n

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

//go:embed l10n.json
var l10nData []byte

// fallbackLang is used when a key has no text for the configured language.
const fallbackLang = "en"

var supported = []language.Tag{
	language.English,
	language.German,
}

// Translator resolves message keys to localized texts.
type Translator struct {
	catalogue map[string]map[string]string
	lang      string
}

// New creates a Translator for the preferred language. The language string is
// matched against the supported set, so "de-AT" resolves to the German texts
// and anything unknown resolves to English.
func New(lang string) (*Translator, error) {
	var catalogue map[string]map[string]string
	if err := json.Unmarshal(l10nData, &catalogue); err != nil {
		return nil, fmt.Errorf("failed to parse message catalogue: %w", err)
	}

	matcher := language.NewMatcher(supported)
	tag, _ := language.MatchStrings(matcher, lang)
	base, _ := tag.Base()

	return &Translator{catalogue: catalogue, lang: base.String()}, nil
}

// Get returns the text for key in the configured language, falling back to
// English. An unknown key returns the key itself so a missing translation is
// visible instead of silent.
func (t *Translator) Get(key string) string {
	entry, ok := t.catalogue[key]
	if !ok {
		return key
	}

	text := entry[t.lang]
	if text == "" {
		text = entry[fallbackLang]
	}

	return text
}

// Format returns the text for key with {placeholder} occurrences substituted.
func (t *Translator) Format(key string, args map[string]string) string {
	text := t.Get(key)
	if len(args) == 0 {
		return text
	}

	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", value)
	}

	return strings.NewReplacer(pairs...).Replace(text)
}
