// errors.go - Preview error types
package preview

import "fmt"

// EncodingError reports a transport encoding failure. It also covers the
// case where encoding itself succeeded but the payload exceeds the inline
// transport limit.
type EncodingError struct {
	EncodedSize int64
	Limit       int64
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encoded payload is %d bytes, transport limit is %d", e.EncodedSize, e.Limit)
}
