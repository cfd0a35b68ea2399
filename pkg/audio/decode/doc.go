// ABOUTME: Audio decoder package for wire payloads and source files
// ABOUTME: Provides Decoder interface plus looping MP3 and FLAC readers
// Package decode provides audio decoders.
//
// Wire codecs: PCM (16-bit little-endian), Opus. Both implement Decoder.
//
// File sources: MP3 and FLAC files are read through FileReader, which
// downmixes to mono and loops forever so a file can stand in for a
// microphone.
//
// Example:
//
//	decoder, err := decode.New(format)
//	samples, err := decoder.Decode(payload)
package decode
