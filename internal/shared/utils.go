// Package shared holds small helpers used across client packages.
package shared

// WipeByteArray overwrites the contents of the provided byte slice with zeros.
// Use it to drop credentials from memory once they have been copied where
// they belong.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
