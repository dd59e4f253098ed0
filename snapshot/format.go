package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/hupe1980/pointgrid/attribute"
)

const (
	// MagicNumber identifies grid snapshot blobs (ASCII: "PGS1").
	MagicNumber = 0x50475331
	// Version is the current snapshot format version (v1.0.0).
	Version = 0x00010000
)

var (
	// ErrInvalidMagic is returned when the stream does not start with the
	// snapshot magic number.
	ErrInvalidMagic = errors.New("snapshot: invalid magic number")
	// ErrInvalidVersion is returned for snapshots written by an
	// incompatible format version.
	ErrInvalidVersion = errors.New("snapshot: unsupported version")
	// ErrChecksumMismatch is returned when the CRC32 trailer does not match
	// the stream contents.
	ErrChecksumMismatch = errors.New("snapshot: checksum mismatch")
)

// fileHeader is the fixed 16-byte header at the start of every snapshot.
type fileHeader struct {
	Magic       uint32
	Version     uint32
	Compression uint8
	Padding     [3]byte
	RegionCount uint32
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("snapshot: string too long (%d bytes)", len(s))
	}
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(s)))
	buf.Write(lenBuf[:])
	buf.WriteString(s)
	return nil
}

// encodeColumn appends a field column's raw values to buf in little-endian
// order. Group columns are serialized separately via their bitmaps.
func encodeColumn(buf *bytes.Buffer, col attribute.Column) error {
	var scratch [8]byte

	switch c := col.(type) {
	case attribute.Vec3fColumn:
		for _, v := range c {
			for _, f := range v {
				binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(f))
				buf.Write(scratch[:4])
			}
		}
	case attribute.Float32Column:
		for _, f := range c {
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(f))
			buf.Write(scratch[:4])
		}
	case attribute.Int32Column:
		for _, v := range c {
			binary.LittleEndian.PutUint32(scratch[:4], uint32(v))
			buf.Write(scratch[:4])
		}
	case attribute.Int64Column:
		for _, v := range c {
			binary.LittleEndian.PutUint64(scratch[:8], uint64(v))
			buf.Write(scratch[:8])
		}
	case attribute.Uint8Column:
		buf.Write(c)
	default:
		return fmt.Errorf("snapshot: cannot encode column kind %s", col.Kind())
	}
	return nil
}

// decodeColumn reads n raw values of the given kind from buf into col.
func decodeColumn(buf *bytes.Reader, col attribute.Column, n int) error {
	var scratch [8]byte

	switch c := col.(type) {
	case attribute.Vec3fColumn:
		for i := 0; i < n; i++ {
			for j := 0; j < 3; j++ {
				if _, err := io.ReadFull(buf, scratch[:4]); err != nil {
					return err
				}
				c[i][j] = math.Float32frombits(binary.LittleEndian.Uint32(scratch[:4]))
			}
		}
	case attribute.Float32Column:
		for i := 0; i < n; i++ {
			if _, err := io.ReadFull(buf, scratch[:4]); err != nil {
				return err
			}
			c[i] = math.Float32frombits(binary.LittleEndian.Uint32(scratch[:4]))
		}
	case attribute.Int32Column:
		for i := 0; i < n; i++ {
			if _, err := io.ReadFull(buf, scratch[:4]); err != nil {
				return err
			}
			c[i] = int32(binary.LittleEndian.Uint32(scratch[:4]))
		}
	case attribute.Int64Column:
		for i := 0; i < n; i++ {
			if _, err := io.ReadFull(buf, scratch[:8]); err != nil {
				return err
			}
			c[i] = int64(binary.LittleEndian.Uint64(scratch[:8]))
		}
	case attribute.Uint8Column:
		if _, err := io.ReadFull(buf, c[:n]); err != nil {
			return err
		}
	default:
		return fmt.Errorf("snapshot: cannot decode column kind %s", col.Kind())
	}
	return nil
}
