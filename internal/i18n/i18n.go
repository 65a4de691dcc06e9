// Package i18n serves the English and Arabic display dictionaries.
package i18n

import (
	"embed"
	"fmt"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localesFS embed.FS

// Supported languages; the first is the fallback.
var Supported = []language.Tag{language.English, language.Arabic}

var (
	matcher      = language.NewMatcher(Supported)
	dictionaries = mustLoad()
)

func mustLoad() map[string]map[string]string {
	out := make(map[string]map[string]string, len(Supported))
	for _, tag := range Supported {
		lang := tag.String()
		data, err := localesFS.ReadFile("locales/" + lang + ".yaml")
		if err != nil {
			panic(fmt.Sprintf("i18n: %v", err))
		}
		dict := map[string]string{}
		if err := yaml.Unmarshal(data, &dict); err != nil {
			panic(fmt.Sprintf("i18n: %s: %v", lang, err))
		}
		out[lang] = dict
	}
	return out
}

// Match picks the best supported language for an Accept-Language header or language code.
// Unknown or empty input yields "en".
func Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return Supported[0].String()
	}
	_, idx, _ := matcher.Match(tags...)
	return Supported[idx].String()
}

// Translate returns the string for key in lang, falling back to English and then to the key.
func Translate(key, lang string) string {
	if v, ok := dictionaries[Match(lang)][key]; ok {
		return v
	}
	if v, ok := dictionaries[Supported[0].String()][key]; ok {
		return v
	}
	return key
}

// Dictionary returns a copy of the dictionary for lang with English entries filling any gaps.
func Dictionary(lang string) map[string]string {
	lang = Match(lang)
	out := make(map[string]string, len(dictionaries[Supported[0].String()]))
	for k, v := range dictionaries[Supported[0].String()] {
		out[k] = v
	}
	for k, v := range dictionaries[lang] {
		out[k] = v
	}
	return out
}

// Dir returns the text direction for lang: "rtl" for Arabic, "ltr" otherwise.
func Dir(lang string) string {
	if Match(lang) == language.Arabic.String() {
		return "rtl"
	}
	return "ltr"
}
