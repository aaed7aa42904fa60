// Package media describes the containers the converter accepts and the audio
// formats it produces, and builds the ffmpeg argument lists for both
// conversion paths.
//
// The format table is the single source of truth for codec, bitrate, file
// extension, and MIME type. Lookups are case-insensitive.
package media
