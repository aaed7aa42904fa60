package language

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minDetectWords avoids guessing from a word or two.
const minDetectWords = 3

// Detector identifies the language of free text. The underlying models are
// built on first use.
type Detector struct {
	once     sync.Once
	detector lingua.LanguageDetector
}

// NewDetector returns a lazily initialised Detector.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the ISO 639-1 code of text, or false when the text is too
// short or no language is reliable.
func (d *Detector) Detect(text string) (string, bool) {
	if len(strings.Fields(text)) < minDetectWords {
		return "", false
	}
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithLowAccuracyMode().
			Build()
	})
	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return Normalize(detected.IsoCode639_1().String())
}
