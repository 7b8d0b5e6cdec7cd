// ABOUTME: Version and product metadata
// ABOUTME: Single place for the strings reported by -version
package version

const (
	// Version is the software version
	Version = "0.1.0"

	// Product is the product name
	Product = "Stomploop"
)
