// ABOUTME: Build identification for livecam binaries
// ABOUTME: Reported in client/hello device info and --version output
package version

const (
	Version      = "0.3.0"
	Product      = "Livecam"
	Manufacturer = "Livecam"
)
