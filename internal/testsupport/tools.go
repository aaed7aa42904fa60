package testsupport

import (
	"os"
	"path/filepath"
)

// FFmpegStub answers -version and writes a fixed payload to the output path,
// which is always the last argument.
const FFmpegStub = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "ffmpeg version stub"
  exit 0
fi
for last; do :; done
printf 'audio-bytes' > "$last"
`

// FFmpegFailingStub exits non-zero with a decoder error on stderr.
const FFmpegFailingStub = `#!/bin/sh
echo "Invalid data found when processing input" >&2
exit 1
`

// WhisperSpeechStub writes two English segments to the -of JSON target.
const WhisperSpeechStub = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then
    out="$2"
  fi
  shift
done
cat > "$out.json" <<'JSON'
{"result":{"language":"en"},"transcription":[{"offsets":{"from":0,"to":1500},"text":" hello there"},{"offsets":{"from":1500,"to":3000},"text":" general kenobi"}]}
JSON
`

// WhisperSilentStub reports no segments.
const WhisperSilentStub = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-of" ]; then
    out="$2"
  fi
  shift
done
printf '{"result":{"language":"en"},"transcription":[]}' > "$out.json"
`

// WhisperFailingStub exits non-zero as a broken model would.
const WhisperFailingStub = `#!/bin/sh
echo "failed to load model" >&2
exit 3
`

// Stubs lists installed stub executables.
type Stubs struct {
	FFmpeg  string
	Whisper string
	// FFprobe names a path that does not exist.
	FFprobe string
}

// InstallStubs writes the default ffmpeg and whisper stubs into dir.
func InstallStubs(dir string) (Stubs, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Stubs{}, err
	}
	stubs := Stubs{
		FFmpeg:  filepath.Join(dir, "ffmpeg"),
		Whisper: filepath.Join(dir, "whisper-cli"),
		FFprobe: filepath.Join(dir, "missing-ffprobe"),
	}
	if err := WriteScript(stubs.FFmpeg, FFmpegStub); err != nil {
		return Stubs{}, err
	}
	if err := WriteScript(stubs.Whisper, WhisperSpeechStub); err != nil {
		return Stubs{}, err
	}
	return stubs, nil
}

// WriteScript replaces path with an executable shell script.
func WriteScript(path, body string) error {
	return os.WriteFile(path, []byte(body), 0o755)
}
