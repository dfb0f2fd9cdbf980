package hwp

import (
	"crypto/aes"

	"github.com/structext/structext/core"
)

// distBlockSize is the size of the masked distribution-data block that
// opens a ViewText section stream.
const distBlockSize = 256

// srand replays the msvcrt rand() sequence the masking was generated
// with. It is a plain linear congruential generator, not a cryptographic
// primitive: the seed is stored in the first four bytes of the block, so
// the mask hides nothing and only has to be reproduced exactly.
type srand struct {
	seed int32
}

func (r *srand) next() int32 {
	r.seed = r.seed*214013 + 2531011
	return r.seed >> 16 & 0x7FFF
}

// unmaskDistBlock strips the rand-derived XOR mask from the 256-byte
// distribution-data block in place and returns the AES key hidden in it.
// The first four bytes (the seed) stay masked; the key offset is taken
// from the low nibble of byte 0 after unmasking.
func unmaskDistBlock(block []byte) ([]byte, error) {
	if len(block) < distBlockSize {
		return nil, &core.TruncatedError{Op: "read distribution block", Wanted: distBlockSize, Have: len(block)}
	}
	seed := int32(uint32(block[0]) | uint32(block[1])<<8 | uint32(block[2])<<16 | uint32(block[3])<<24)
	rnd := srand{seed: seed}
	var key byte
	n := 0
	for i := 0; i < distBlockSize; i++ {
		if n == 0 {
			key = byte(rnd.next() & 0xFF)
			n = int(rnd.next()&0xF) + 1
		}
		if i >= 4 {
			block[i] ^= key
		}
		n--
	}
	offset := 4 + int(block[0]&0xF)
	if offset+16 > distBlockSize {
		return nil, &core.MalformedRecordError{Offset: offset, Detail: "distribution key offset out of range"}
	}
	return block[offset : offset+16], nil
}

// decryptECB decrypts data with AES-128 in ECB mode. The format applies
// no padding; a trailing partial block would mean the stream is cut
// short.
func decryptECB(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, &core.TruncatedError{
			Op:     "decrypt section",
			Wanted: (len(data)/aes.BlockSize + 1) * aes.BlockSize,
			Have:   len(data),
		}
	}
	out := make([]byte, len(data))
	for i := 0; i < len(data); i += aes.BlockSize {
		block.Decrypt(out[i:i+aes.BlockSize], data[i:i+aes.BlockSize])
	}
	return out, nil
}
