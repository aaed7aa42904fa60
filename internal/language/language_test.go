package language

import "testing"

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"en":      "en",
		"EN":      "en",
		"en-US":   "en",
		"eng":     "en",
		"english": "en",
		"French":  "fr",
		"pt-BR":   "pt",
		"ja":      "ja",
	}
	for in, want := range cases {
		got, ok := Normalize(in)
		if !ok || got != want {
			t.Fatalf("Normalize(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	for _, in := range []string{"", "auto", "AUTO", "und", "UND", "mul", "zxx", "12", "not a language"} {
		if got, ok := Normalize(in); ok {
			t.Fatalf("Normalize(%q) = %q; want rejection", in, got)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("de"); got != "German" {
		t.Fatalf("DisplayName(de) = %q", got)
	}
	for _, in := range []string{"", "und", "zxx"} {
		if got := DisplayName(in); got != "Unknown" {
			t.Fatalf("DisplayName(%q) = %q, want Unknown", in, got)
		}
	}
}

func TestDetectorRequiresEnoughText(t *testing.T) {
	d := NewDetector()
	if _, ok := d.Detect("hello"); ok {
		t.Fatal("expected no detection for a single word")
	}
}

func TestDetectorFindsEnglish(t *testing.T) {
	d := NewDetector()
	code, ok := d.Detect("The quick brown fox jumps over the lazy dog while the children watch from the garden.")
	if !ok || code != "en" {
		t.Fatalf("expected en, got %q %v", code, ok)
	}
}
