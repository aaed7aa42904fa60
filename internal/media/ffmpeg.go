package media

import "strconv"

const (
	// SpeechSampleRate and SpeechChannels match what whisper models expect.
	SpeechSampleRate = 16000
	SpeechChannels   = 1
	speechCodec      = "pcm_s16le"
)

// TranscodeSpec is one ffmpeg invocation producing an audio-only file.
type TranscodeSpec struct {
	Input      string
	Output     string
	Codec      string
	Bitrate    string
	SampleRate int
	Channels   int
	// StreamIndex selects a specific input stream; negative picks the first audio stream.
	StreamIndex int
}

// Args renders the ffmpeg argument list.
func (s TranscodeSpec) Args() []string {
	mapping := "0:a:0"
	if s.StreamIndex >= 0 {
		mapping = "0:" + strconv.Itoa(s.StreamIndex)
	}
	args := []string{
		"-y",
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-i", s.Input,
		"-map", mapping,
		"-vn",
		"-sn",
		"-dn",
	}
	if s.Channels > 0 {
		args = append(args, "-ac", strconv.Itoa(s.Channels))
	}
	if s.SampleRate > 0 {
		args = append(args, "-ar", strconv.Itoa(s.SampleRate))
	}
	args = append(args, "-c:a", s.Codec)
	if s.Bitrate != "" {
		args = append(args, "-b:a", s.Bitrate)
	}
	return append(args, s.Output)
}

// AudioSpec builds the conversion for a user-selected audio format.
func AudioSpec(input, output string, format AudioFormat) TranscodeSpec {
	spec := TranscodeSpec{
		Input:       input,
		Output:      output,
		Codec:       format.Codec,
		StreamIndex: -1,
	}
	if !format.Lossless {
		spec.Bitrate = format.Bitrate
	}
	return spec
}

// SpeechSpec builds the mono 16 kHz PCM extraction used before recognition.
func SpeechSpec(input, output string, streamIndex int) TranscodeSpec {
	return TranscodeSpec{
		Input:       input,
		Output:      output,
		Codec:       speechCodec,
		SampleRate:  SpeechSampleRate,
		Channels:    SpeechChannels,
		StreamIndex: streamIndex,
	}
}
