// internal/store/compression.go
package store

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic starts every zstd frame.
var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// CompressionOptions configures compression behavior
type CompressionOptions struct {
	// Minimum size in bytes before compressing
	MinSize int
	// Compression level (1=fastest, 4=best)
	Level int
}

// DefaultCompressionOptions provides sensible defaults
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		MinSize: 1024,
		Level:   2,
	}
}

// compressionManager pools zstd encoders and decoders.
type compressionManager struct {
	opts     CompressionOptions
	encoders sync.Pool
	decoders sync.Pool
}

func newCompressionManager(opts CompressionOptions) (*compressionManager, error) {
	level := zstd.EncoderLevelFromZstd(opts.Level)

	// Fail early on bad options rather than inside a pool New func.
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("creating encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("creating decoder: %w", err)
	}

	cm := &compressionManager{opts: opts}
	cm.encoders.New = func() interface{} {
		e, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
		return e
	}
	cm.decoders.New = func() interface{} {
		d, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
		return d
	}
	cm.encoders.Put(enc)
	cm.decoders.Put(dec)
	return cm, nil
}

// compress returns content zstd-compressed when it is at least MinSize
// bytes, otherwise content unchanged.
func (cm *compressionManager) compress(content []byte) []byte {
	if len(content) < cm.opts.MinSize {
		return content
	}
	enc := cm.encoders.Get().(*zstd.Encoder)
	defer cm.encoders.Put(enc)
	return enc.EncodeAll(content, make([]byte, 0, len(content)/2))
}

// decompress reverses compress. Content without the zstd magic is returned
// as is.
func (cm *compressionManager) decompress(content []byte) ([]byte, error) {
	if !bytes.HasPrefix(content, zstdMagic) {
		return content, nil
	}
	dec := cm.decoders.Get().(*zstd.Decoder)
	defer cm.decoders.Put(dec)

	out, err := dec.DecodeAll(content, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return out, nil
}
