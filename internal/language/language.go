package language

import (
	"strings"

	"github.com/leonardotrapani/transcribebridge/internal/apierr"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a translation target supported by the service
type Language struct {
	Code       string // wire code sent to the service (e.g. "en", "zh")
	Tag        language.Tag
	Name       string // English name
	NativeName string
}

// languages is the master list of translation targets
var languages = []Language{
	newLanguage("zh", language.SimplifiedChinese),
	newLanguage("en", language.AmericanEnglish),
	newLanguage("ja", language.Japanese),
	newLanguage("ko", language.Korean),
	newLanguage("fr", language.French),
	newLanguage("de", language.German),
}

// aliases accepted by Parse in addition to BCP 47 tags
var aliases = map[string]string{
	"zh":                 "zh",
	"chinese":            "zh",
	"zh_cn":              "zh",
	"chinese_simplified": "zh",
	"en":                 "en",
	"english":            "en",
	"en_us":              "en",
	"ja":                 "ja",
	"japanese":           "ja",
	"ko":                 "ko",
	"korean":             "ko",
	"fr":                 "fr",
	"french":             "fr",
	"de":                 "de",
	"german":             "de",
}

var codeIndex map[string]Language

func init() {
	codeIndex = make(map[string]Language, len(languages))
	for _, lang := range languages {
		codeIndex[lang.Code] = lang
	}
}

func newLanguage(code string, tag language.Tag) Language {
	return Language{
		Code:       code,
		Tag:        tag,
		Name:       display.English.Tags().Name(tag),
		NativeName: display.Self.Name(tag),
	}
}

func (l Language) String() string { return l.Code }

// Parse resolves a user supplied language name, alias or BCP 47 tag.
// Matching is case-insensitive and ignores surrounding whitespace.
func Parse(input string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(input))

	if code, ok := aliases[key]; ok {
		return codeIndex[code], nil
	}

	if key != "" {
		if tag, err := language.Parse(strings.ReplaceAll(key, "_", "-")); err == nil {
			if lang, ok := fromTag(tag); ok {
				return lang, nil
			}
		}
	}

	return Language{}, apierr.Newf(apierr.KindInvalidInput, "Unknown language type: %s", key)
}

func fromTag(tag language.Tag) (Language, bool) {
	base, _ := tag.Base()
	lang, ok := codeIndex[base.String()]
	if !ok {
		return Language{}, false
	}
	// only simplified Chinese is offered
	if lang.Code == "zh" {
		if script, conf := tag.Script(); conf != language.No && script.String() == "Hant" {
			return Language{}, false
		}
	}
	return lang, true
}

// FromCode returns the Language for a wire code
func FromCode(code string) (Language, bool) {
	lang, ok := codeIndex[code]
	return lang, ok
}

// List returns all supported languages
func List() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Codes returns all wire codes
func Codes() []string {
	codes := make([]string, len(languages))
	for i, lang := range languages {
		codes[i] = lang.Code
	}
	return codes
}

// Label returns a human-readable label such as "Japanese (ja)".
func Label(code string) string {
	if lang, ok := codeIndex[code]; ok {
		return lang.Name + " (" + code + ")"
	}
	return "language '" + code + "'"
}
