package media

import (
	"slices"
	"strings"
	"testing"
)

func TestLookupAudioFormat(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		mime    string
		bitrate string
	}{
		{"mp3", "mp3", "audio/mpeg", "320k"},
		{"MP3", "mp3", "audio/mpeg", "320k"},
		{".wav", "wav", "audio/wav", ""},
		{" aac ", "aac", "audio/aac", "128k"},
		{"Flac", "flac", "audio/flac", ""},
		{"ogg", "ogg", "audio/ogg", "192k"},
	}
	for _, tc := range cases {
		got, ok := LookupAudioFormat(tc.in)
		if !ok {
			t.Fatalf("%q: expected format", tc.in)
		}
		if got.Name != tc.want || got.ContentType != tc.mime || got.Bitrate != tc.bitrate {
			t.Fatalf("%q: unexpected format %+v", tc.in, got)
		}
	}
	for _, bad := range []string{"", "aiff", "mp4", "wma"} {
		if _, ok := LookupAudioFormat(bad); ok {
			t.Fatalf("%q: expected rejection", bad)
		}
	}
}

func TestIsVideoFile(t *testing.T) {
	for _, name := range []string{"clip.mp4", "CLIP.MKV", "a.b.webm", `C:\Users\me\movie.MoV`, "dir/x.flv", "x.avi", "x.wmv"} {
		if !IsVideoFile(name) {
			t.Fatalf("%q: expected video", name)
		}
	}
	for _, name := range []string{"notes.txt", "setup.exe", "mp4", "", "audio.mp3", "archive.mp4.zip"} {
		if IsVideoFile(name) {
			t.Fatalf("%q: expected rejection", name)
		}
	}
}

func TestReplaceExtension(t *testing.T) {
	cases := map[string]string{
		"holiday.mp4":              "holiday.mp3",
		"my.talk.MKV":              "my.talk.mp3",
		`C:\clips\lecture one.mov`: "lecture one.mp3",
		".mp4":                     "output.mp3",
		`what? a: "talk"*.mp4`:     "what a- talk-.mp3",
	}
	for in, want := range cases {
		if got := ReplaceExtension(in, "mp3"); got != want {
			t.Fatalf("ReplaceExtension(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAudioSpecArgs(t *testing.T) {
	mp3, _ := LookupAudioFormat("mp3")
	args := AudioSpec("in.mp4", "out.mp3", mp3).Args()
	joined := strings.Join(args, " ")
	for _, fragment := range []string{"-i in.mp4", "-map 0:a:0", "-vn", "-c:a libmp3lame", "-b:a 320k"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
	if args[len(args)-1] != "out.mp3" {
		t.Fatalf("expected output last, got %v", args)
	}

	for _, name := range []string{"wav", "flac"} {
		format, _ := LookupAudioFormat(name)
		args := AudioSpec("in.mp4", "out."+name, format).Args()
		if slices.Contains(args, "-b:a") {
			t.Fatalf("%s: lossless output must not carry a bitrate: %v", name, args)
		}
	}
	wav, _ := LookupAudioFormat("wav")
	if !slices.Contains(AudioSpec("in", "out", wav).Args(), "pcm_s16le") {
		t.Fatal("wav must use pcm_s16le")
	}
}

func TestSpeechSpecArgs(t *testing.T) {
	joined := strings.Join(SpeechSpec("in.mkv", "speech.wav", 2).Args(), " ")
	for _, fragment := range []string{"-map 0:2", "-vn", "-ac 1", "-ar 16000", "-c:a pcm_s16le"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
	if !strings.Contains(strings.Join(SpeechSpec("in", "out", -1).Args(), " "), "-map 0:a:0") {
		t.Fatal("expected first-audio mapping for negative index")
	}
}

func TestListsAreCopies(t *testing.T) {
	exts := VideoExtensions()
	exts[0] = "zzz"
	if VideoExtensions()[0] != "mp4" {
		t.Fatal("VideoExtensions must return a copy")
	}
	if len(AudioFormats()) != 5 || len(TextFormats()) != 1 {
		t.Fatal("unexpected format lists")
	}
}
