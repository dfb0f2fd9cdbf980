package filters

import (
	"bytes"
	"compress/flate"
	"compress/zlib"
	"fmt"
	"io"
)

// RawDeflateDecode decompresses a raw DEFLATE stream (no zlib header or
// checksum). HWP section streams are stored this way. Data already
// decompressed before a corruption point is returned alongside the error
// so callers can salvage a truncated stream.
func RawDeflateDecode(data []byte) ([]byte, error) {
	reader := flate.NewReader(bytes.NewReader(data))
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return buf.Bytes(), fmt.Errorf("raw deflate: %w", err)
	}
	return buf.Bytes(), nil
}

// ZlibDecode decompresses a zlib-wrapped DEFLATE stream.
func ZlibDecode(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer reader.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return buf.Bytes(), fmt.Errorf("zlib: %w", err)
	}
	return buf.Bytes(), nil
}
