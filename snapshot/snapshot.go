// Package snapshot frames engine snapshots with a small header and an
// optional compression layer. The payload format inside the frame is owned
// by the engine that wrote it.
package snapshot

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the compression applied to the snapshot payload.
type Compression byte

const (
	// CompressionNone stores the payload uncompressed.
	CompressionNone Compression = iota
	// CompressionZstd compresses the payload with zstandard.
	CompressionZstd
	// CompressionLZ4 compresses the payload with lz4.
	CompressionLZ4
)

// String returns a string representation of the Compression.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionLZ4:
		return "LZ4"
	default:
		return fmt.Sprintf("Unknown(%d)", byte(c))
	}
}

var magic = [4]byte{'N', 'N', 'I', 'X'}

const version = 1

// NewWriter writes the snapshot header to w and returns a writer for the
// payload. Closing the returned writer flushes the compression layer; it
// does not close w.
func NewWriter(w io.Writer, c Compression) (io.WriteCloser, error) {
	header := []byte{magic[0], magic[1], magic[2], magic[3], version, byte(c)}
	if _, err := w.Write(header); err != nil {
		return nil, err
	}

	switch c {
	case CompressionNone:
		return nopWriteCloser{w}, nil
	case CompressionZstd:
		return zstd.NewWriter(w)
	case CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("snapshot: unsupported compression: %d", byte(c))
	}
}

// NewReader consumes the snapshot header from r and returns a reader for
// the payload, transparently decompressing it.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	header := make([]byte, 6)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}

	if [4]byte(header[:4]) != magic {
		return nil, fmt.Errorf("snapshot: bad magic %q", header[:4])
	}
	if header[4] != version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", header[4])
	}

	switch Compression(header[5]) {
	case CompressionNone:
		return io.NopCloser(r), nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return zr.IOReadCloser(), nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("snapshot: unsupported compression: %d", header[5])
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
