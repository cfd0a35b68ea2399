// ABOUTME: Livecam wire protocol package
// ABOUTME: JSON control messages and binary media frames over one websocket
// Package protocol defines the robot to viewer wire format.
//
// Control traffic is JSON text frames wrapped in Message. Media is sent as
// binary frames: audio chunks (type 1) and camera frames (type 2), each
// prefixed by a big-endian microsecond timestamp.
package protocol
