// ABOUTME: Ring buffer package for the capture to playback handoff
// ABOUTME: Documents the overwrite policies and cursor invariants
// Package ring provides the byte ring buffer that sits between the capture
// callback and the playback consumer.
//
// The buffer never blocks its producer. When a push catches up with the read
// cursor the oldest unread bytes are discarded:
//   - DropOldestSample (default) drops two bytes, keeping 16-bit alignment
//   - DropOldestByte drops one byte
//
// One slot is always left free so that a full buffer can be told apart from
// an empty one; Size() never reaches Capacity().
//
// Example:
//
//	buf := ring.New(ring.CapacityFor(time.Second, 48000, 1, 2))
//	buf.Push(0x64)
//	n := buf.ReadInto(out)
package ring
