// Package playback moves converted capture audio to an output device.
//
// PullSink serves devices that ask for bytes at their own cadence.
// WorkerSink serves producers that push batches and a device writer
// that may block.
package playback
