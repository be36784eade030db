// Package humanize formats byte counts for progress and summary logging.
package humanize

import (
	"github.com/dustin/go-humanize"
)

// Bytes renders n using binary (1024-based) unit prefixes (KiB, MiB, ...),
// the way the build's progress logs report throughput.
func Bytes(n int64) string {
	if n < 0 {
		return "0 B"
	}
	return humanize.IBytes(uint64(n))
}
