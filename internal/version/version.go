// ABOUTME: Product identity constants
// ABOUTME: Used for the HTTP User-Agent and mDNS advertisement
package version

const (
	Product      = "WaveCast Radio"
	Manufacturer = "WaveCast"
	Version      = "1.0.0"

	// UserAgent identifies the appliance to stream servers.
	UserAgent = "WaveCast/" + Version
)
