package engine

import (
	"bytes"
	"io"
)

// ReadUntil performs a blocking byte-at-a-time read from r, maintaining a
// sliding window of the last len(pattern) bytes, until that window equals
// pattern (inclusive) or a read returns zero bytes (EOF) (§4.5).
func ReadUntil(r io.Reader, pattern []byte) []byte {
	if len(pattern) == 0 {
		return nil
	}

	var result []byte
	window := make([]byte, 0, len(pattern))
	buf := make([]byte, 1)

	for {
		n, err := r.Read(buf)
		if n > 0 {
			result = append(result, buf[0])
			window = append(window, buf[0])
			if len(window) > len(pattern) {
				window = window[1:]
			}
			if len(window) == len(pattern) && bytes.Equal(window, pattern) {
				break
			}
		}
		if n == 0 || err != nil {
			break
		}
	}

	return result
}
