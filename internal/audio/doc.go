// Package audio provides playback of a single music track using the oto/v3
// library. It decodes MP3 and WAV files into 16-bit PCM, owns the playback
// handle, and offers a mock player for tests.
package audio
