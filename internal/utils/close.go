package utils

import "io"

// Close closes c, ignoring the error, for deferred cleanup of response
// bodies and half-built resources. A nil c is a no-op.
func Close(c io.Closer) {
	if c == nil {
		return
	}
	_ = c.Close()
}
