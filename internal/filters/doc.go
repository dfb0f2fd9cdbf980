// Package filters provides the decompression helpers the format drivers
// need to open compressed sub-streams before structural scanning.
package filters
