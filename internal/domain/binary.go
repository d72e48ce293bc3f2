package domain

import "io"

// BinaryData is a typed byte stream destined for the binary resource store.
type BinaryData struct {
	ContentType string
	Length      int64
	Body        io.Reader
}
