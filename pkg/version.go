package dwcheck

var (
	// Version of dwcheck, set by build flags.
	Version = "v0.1.0"
	// Build timestamp, set by build flags.
	Build = "n/a"
)
