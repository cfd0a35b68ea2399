// Package capture turns microphone batches into a 48 kHz byte stream.
//
// A Module subscribes to a Device on Start and owns a fresh ring buffer for
// the session. Batches are converted by SampleSource and pushed byte by
// byte; playback drains them through the Reader handle.
package capture
