package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the configured value asking the engine to detect the language.
const Auto = "auto"

// commonCodes seeds the reverse lookup from English language names.
var commonCodes = []string{
	"en", "es", "fr", "de", "it", "pt", "ja", "ko", "zh", "ru", "ar", "hi", "nl", "pl",
	"sv", "da", "no", "fi", "tr", "uk", "cs", "el", "he", "hu", "id", "ro", "th", "vi",
	"ca", "ms", "fa", "bn", "ta", "ur", "sk", "hr", "bg", "sr", "lt", "lv", "et", "sl",
}

var byName = func() map[string]string {
	names := display.English.Languages()
	out := make(map[string]string, len(commonCodes))
	for _, code := range commonCodes {
		tag := language.Make(code)
		if name := strings.ToLower(names.Name(tag)); name != "" {
			out[name] = code
		}
	}
	return out
}()

// Normalize maps a code, tag, or English language name to ISO 639-1.
// It returns "" and false for auto, undetermined, or unparseable input.
func Normalize(value string) (string, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == Auto {
		return "", false
	}
	if code, ok := byName[value]; ok {
		return code, true
	}
	tag, err := language.Parse(value)
	if err != nil || tag == language.Und {
		return "", false
	}
	// Base guesses a likely language for und and friends; only an explicit
	// base counts. Three-letter results (mul, zxx) have no ISO 639-1 form.
	base, confidence := tag.Base()
	if confidence != language.Exact {
		return "", false
	}
	code := base.String()
	if len(code) != 2 {
		return "", false
	}
	return code, true
}

// DisplayName returns the English name for a code, or "Unknown".
func DisplayName(code string) string {
	normalized, ok := Normalize(code)
	if !ok {
		return "Unknown"
	}
	if name := display.English.Languages().Name(language.Make(normalized)); name != "" {
		return name
	}
	return strings.ToUpper(normalized)
}
