// internal/objectstore/compression.go
package objectstore

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// compressionOptions configures compression behavior for chunk payloads.
type compressionOptions struct {
	MinSize        int      // minimum size in bytes before compressing
	Level          int      // zstd level: 1-2 fastest, 3-5 default, 6-9 better, 10+ best
	SkipExtensions []string // extensions already compressed/binary
}

func defaultCompressionOptions() compressionOptions {
	return compressionOptions{
		MinSize: 1024,
		Level:   2,
		SkipExtensions: []string{
			".zip", ".gz", ".zst", ".xz", ".bz2",
			".png", ".jpg", ".jpeg", ".gif", ".webp",
			".mp3", ".mp4", ".avi", ".mkv",
			".pdf", ".docx", ".xlsx",
		},
	}
}

// compressionManager pools zstd encoders/decoders across chunk writes.
type compressionManager struct {
	opts     compressionOptions
	encoders sync.Pool
	decoders sync.Pool
}

func newCompressionManager(opts compressionOptions) (*compressionManager, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.Level)))
	if err != nil {
		return nil, fmt.Errorf("creating test encoder: %w", err)
	}
	enc.Close()

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("creating test decoder: %w", err)
	}
	dec.Close()

	cm := &compressionManager{
		opts: opts,
		encoders: sync.Pool{New: func() interface{} {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.Level)))
			return enc
		}},
		decoders: sync.Pool{New: func() interface{} {
			dec, _ := zstd.NewReader(nil)
			return dec
		}},
	}
	return cm, nil
}

func (cm *compressionManager) shouldCompress(path string, size int) bool {
	if size < cm.opts.MinSize {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, skip := range cm.opts.SkipExtensions {
		if ext == skip {
			return false
		}
	}
	return true
}

// compress compresses a chunk. hint is a name used only to decide
// whether compression is worth attempting (extension heuristics); the
// chunk itself is opaque bytes. Store.putChunk passes the chunk hash,
// which has no extension.
func (cm *compressionManager) compress(hint string, content []byte) ([]byte, bool) {
	if !cm.shouldCompress(hint, len(content)) {
		return content, false
	}

	enc := cm.encoders.Get().(*zstd.Encoder)
	defer cm.encoders.Put(enc)

	var buf bytes.Buffer
	enc.Reset(&buf)
	if _, err := enc.Write(content); err != nil {
		return content, false
	}
	if err := enc.Close(); err != nil {
		return content, false
	}
	return buf.Bytes(), true
}

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

func (cm *compressionManager) decompress(content []byte) ([]byte, error) {
	if len(content) < 4 || !bytes.Equal(content[:4], zstdMagic) {
		return content, nil
	}

	dec := cm.decoders.Get().(*zstd.Decoder)
	defer cm.decoders.Put(dec)

	if err := dec.Reset(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("resetting decoder: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(dec); err != nil {
		return nil, fmt.Errorf("streaming decompression: %w", err)
	}
	return buf.Bytes(), nil
}
