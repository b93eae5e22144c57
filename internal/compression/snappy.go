package compression

import (
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

// DefaultMaxDecodedSize bounds a decoded job or result payload
const DefaultMaxDecodedSize = 256 << 20

// ErrFrameTooLarge is returned when a frame declares a decoded size above
// the compressor's limit
var ErrFrameTooLarge = errors.New("frame exceeds decoded size limit")

// SnappyCompressor compresses payloads with the Snappy block format. The
// declared length is checked before any buffer is allocated.
type SnappyCompressor struct {
	maxDecoded int
}

// NewSnappyCompressor creates a compressor limited to DefaultMaxDecodedSize
func NewSnappyCompressor() *SnappyCompressor {
	return NewSnappyCompressorWithLimit(DefaultMaxDecodedSize)
}

// NewSnappyCompressorWithLimit creates a compressor rejecting frames that
// decode to more than maxDecoded bytes; zero or less disables the check.
func NewSnappyCompressorWithLimit(maxDecoded int) *SnappyCompressor {
	return &SnappyCompressor{maxDecoded: maxDecoded}
}

func (s *SnappyCompressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	return snappy.Encode(nil, data), nil
}

func (s *SnappyCompressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}

	n, err := snappy.DecodedLen(data)
	if err != nil {
		return nil, fmt.Errorf("snappy header: %w", err)
	}
	if s.maxDecoded > 0 && n > s.maxDecoded {
		return nil, fmt.Errorf("%w: %d > %d bytes", ErrFrameTooLarge, n, s.maxDecoded)
	}

	out, err := snappy.Decode(make([]byte, n), data)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}
	return out, nil
}

func (s *SnappyCompressor) Algorithm() Algorithm {
	return Snappy
}
