// Package compression frames queue payloads with a one-byte algorithm header
// so producers and consumers can change compression independently.
package compression

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Algorithm defines compression types
type Algorithm uint8

const (
	None   Algorithm = 0
	Snappy Algorithm = 1
)

// ErrEmptyFrame is returned when a frame has no header byte
var ErrEmptyFrame = errors.New("empty frame")

// String returns the configuration name of the algorithm
func (a Algorithm) String() string {
	switch a {
	case None:
		return "none"
	case Snappy:
		return "snappy"
	default:
		return fmt.Sprintf("algorithm(%d)", uint8(a))
	}
}

// ParseAlgorithm maps a configuration name to an Algorithm
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "none", "":
		return None, nil
	case "snappy":
		return Snappy, nil
	default:
		return None, fmt.Errorf("unsupported compression: %s (supported: none, snappy)", name)
	}
}

// Compressor interface for compression algorithms
type Compressor interface {
	// Compress compresses data
	Compress(data []byte) ([]byte, error)

	// Decompress decompresses data
	Decompress(data []byte) ([]byte, error)

	// Algorithm returns the compression algorithm type
	Algorithm() Algorithm
}

// GetCompressor returns a compressor for the given algorithm
func GetCompressor(algo Algorithm) (Compressor, error) {
	switch algo {
	case None:
		return &NoneCompressor{}, nil
	case Snappy:
		return NewSnappyCompressor(), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %d", algo)
	}
}

// NoneCompressor is a no-op compressor
type NoneCompressor struct{}

func (n *NoneCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

func (n *NoneCompressor) Algorithm() Algorithm {
	return None
}

// Codec marshals values to JSON and frames them with the compressor's header
type Codec struct {
	compressor Compressor
}

// NewCodec creates a codec that compresses outgoing frames with algo
func NewCodec(algo Algorithm) (*Codec, error) {
	c, err := GetCompressor(algo)
	if err != nil {
		return nil, err
	}
	return &Codec{compressor: c}, nil
}

// Algorithm reports the algorithm used for outgoing frames
func (c *Codec) Algorithm() Algorithm {
	return c.compressor.Algorithm()
}

// Marshal encodes v as [algorithm byte][compressed JSON]
func (c *Codec) Marshal(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	body, err := c.compressor.Compress(raw)
	if err != nil {
		return nil, err
	}

	frame := make([]byte, 0, len(body)+1)
	frame = append(frame, byte(c.compressor.Algorithm()))
	return append(frame, body...), nil
}

// Unmarshal decodes a frame produced by any codec, whatever its algorithm
func (c *Codec) Unmarshal(frame []byte, v interface{}) error {
	if len(frame) == 0 {
		return ErrEmptyFrame
	}

	d, err := GetCompressor(Algorithm(frame[0]))
	if err != nil {
		return err
	}

	raw, err := d.Decompress(frame[1:])
	if err != nil {
		return err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
