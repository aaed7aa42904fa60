package media

import (
	"path/filepath"
	"strings"
)

// DefaultAudioFormat is used when a request names no format.
const DefaultAudioFormat = "mp3"

// AudioFormat describes one selectable audio output.
type AudioFormat struct {
	Name        string
	Extension   string
	Codec       string
	Bitrate     string
	ContentType string
	Lossless    bool
}

var audioFormats = []AudioFormat{
	{Name: "mp3", Extension: ".mp3", Codec: "libmp3lame", Bitrate: "320k", ContentType: "audio/mpeg"},
	{Name: "wav", Extension: ".wav", Codec: "pcm_s16le", ContentType: "audio/wav", Lossless: true},
	{Name: "aac", Extension: ".aac", Codec: "aac", Bitrate: "128k", ContentType: "audio/aac"},
	// FLAC cannot carry raw PCM, so the lossless flac encoder stands in.
	{Name: "flac", Extension: ".flac", Codec: "flac", ContentType: "audio/flac", Lossless: true},
	{Name: "ogg", Extension: ".ogg", Codec: "libvorbis", Bitrate: "192k", ContentType: "audio/ogg"},
}

var videoExtensions = []string{"mp4", "avi", "mkv", "mov", "wmv", "flv", "webm"}

var textFormats = []string{"txt"}

// LookupAudioFormat resolves a format name such as "MP3" or ".wav".
func LookupAudioFormat(name string) (AudioFormat, bool) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(name)), ".")
	for _, format := range audioFormats {
		if format.Name == key {
			return format, true
		}
	}
	return AudioFormat{}, false
}

// AudioFormats lists the selectable audio format names.
func AudioFormats() []string {
	names := make([]string, 0, len(audioFormats))
	for _, format := range audioFormats {
		names = append(names, format.Name)
	}
	return names
}

// VideoExtensions lists accepted upload extensions without the leading dot.
func VideoExtensions() []string {
	return append([]string(nil), videoExtensions...)
}

// TextFormats lists transcript output formats.
func TextFormats() []string {
	return append([]string(nil), textFormats...)
}

// IsVideoFile reports whether name carries an accepted video extension.
func IsVideoFile(name string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(BaseName(name))), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range videoExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// BaseName strips any client-side directory, including Windows-style paths
// some browsers send.
func BaseName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// fileNameReplacer drops characters that are unsafe in download and
// on-disk file names.
var fileNameReplacer = strings.NewReplacer(
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName strips client directories and replaces characters that
// are unsafe in file names.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(fileNameReplacer.Replace(BaseName(name)))
}

// ReplaceExtension keeps the original base name and swaps its extension.
func ReplaceExtension(name, ext string) string {
	base := SanitizeFileName(name)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" {
		stem = "output"
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return stem + ext
}
