package hwp

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/structext/structext/core"
)

// ErrEncrypted is returned for password-protected documents. The cipher
// parameters live outside the file, so nothing can be recovered; the
// caller gets a clean refusal instead of garbage text.
var ErrEncrypted = errors.New("hwp: document is password protected")

// fileHeaderSize is the fixed size of the FileHeader stream.
const fileHeaderSize = 256

var headerSignature = []byte("HWP Document File")

// Property bits of the FileHeader flags word.
const (
	flagCompressed = 1 << 0
	flagEncrypted  = 1 << 1
	flagViewText   = 1 << 2
)

// fileHeader is the decoded FileHeader stream.
type fileHeader struct {
	Version    uint32
	Compressed bool
	Encrypted  bool
	ViewText   bool
}

// parseFileHeader validates the signature and pulls the version and
// property flags out of the 256-byte FileHeader stream.
func parseFileHeader(data []byte) (fileHeader, error) {
	var h fileHeader
	if len(data) < fileHeaderSize {
		return h, &core.TruncatedError{Op: "read file header", Wanted: fileHeaderSize, Have: len(data)}
	}
	if !bytes.Equal(data[:len(headerSignature)], headerSignature) {
		return h, &core.MalformedRecordError{Offset: 0, Detail: "file header signature mismatch"}
	}
	cur := core.NewCursor(data)
	cur.Seek(32)
	h.Version, _ = cur.ReadU32LE()
	flags, _ := cur.ReadU32LE()
	h.Compressed = flags&flagCompressed != 0
	h.Encrypted = flags&flagEncrypted != 0
	h.ViewText = flags&flagViewText != 0
	return h, nil
}

// versionString renders the packed version word, e.g. 5.0.3.0.
func (h fileHeader) versionString() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		h.Version>>24, h.Version>>16&0xFF, h.Version>>8&0xFF, h.Version&0xFF)
}
