package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/hupe1980/pointgrid/attribute"
	"github.com/hupe1980/pointgrid/grid"
	"github.com/hupe1980/pointgrid/internal/conv"
)

// WriteOptions configures snapshot serialization.
type WriteOptions struct {
	// Compression selects the region block compression.
	Compression Compression
}

// countingChecksumWriter tracks bytes written and a running CRC32 so the
// trailer can be computed without buffering the stream.
type countingChecksumWriter struct {
	w    io.Writer
	hash hash.Hash32
	n    int64
}

func newCountingChecksumWriter(w io.Writer) *countingChecksumWriter {
	return &countingChecksumWriter{
		w:    w,
		hash: crc32.NewIEEE(),
	}
}

func (cw *countingChecksumWriter) Write(p []byte) (int, error) {
	cw.hash.Write(p) // never returns an error
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}

// Write serializes the grid to w and returns the number of bytes written.
// The stream ends with a CRC32 trailer over all preceding bytes.
func Write(w io.Writer, g *grid.Grid, opts WriteOptions) (int64, error) {
	cw := newCountingChecksumWriter(w)

	regions := g.Regions()

	regionCount, err := conv.IntToUint32(len(regions))
	if err != nil {
		return cw.n, err
	}

	header := fileHeader{
		Magic:       MagicNumber,
		Version:     Version,
		Compression: uint8(opts.Compression),
		RegionCount: regionCount,
	}
	if err := binary.Write(cw, binary.LittleEndian, &header); err != nil {
		return cw.n, fmt.Errorf("write header: %w", err)
	}

	if err := writeDescriptor(cw, g.Descriptor()); err != nil {
		return cw.n, err
	}

	for _, r := range regions {
		if err := writeRegion(cw, g.Descriptor(), r, opts.Compression); err != nil {
			origin := r.Origin()
			return cw.n, fmt.Errorf("write region (%d,%d,%d): %w", origin.X, origin.Y, origin.Z, err)
		}
	}

	// Trailer: CRC32 over everything written so far. Written to the raw
	// writer so the checksum does not cover itself.
	var trailer [4]byte
	binary.LittleEndian.PutUint32(trailer[:], cw.hash.Sum32())
	n, err := w.Write(trailer[:])
	cw.n += int64(n)
	if err != nil {
		return cw.n, fmt.Errorf("write trailer: %w", err)
	}

	return cw.n, nil
}

func writeDescriptor(w io.Writer, desc *attribute.Descriptor) error {
	var buf bytes.Buffer

	fields := desc.Fields()
	var lenBuf [2]byte
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(fields)))
	buf.Write(lenBuf[:])
	for _, f := range fields {
		if err := writeString(&buf, f.Name); err != nil {
			return err
		}
		buf.WriteByte(uint8(f.Kind))
	}

	groups := desc.Groups()
	binary.LittleEndian.PutUint16(lenBuf[:], uint16(len(groups)))
	buf.Write(lenBuf[:])
	for _, name := range groups {
		if err := writeString(&buf, name); err != nil {
			return err
		}
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}
	return nil
}

func writeRegion(w io.Writer, desc *attribute.Descriptor, r *grid.Region, compression Compression) error {
	origin := r.Origin()
	if err := binary.Write(w, binary.LittleEndian, [3]int32{origin.X, origin.Y, origin.Z}); err != nil {
		return err
	}

	payload, err := encodeRegionPayload(desc, r)
	if err != nil {
		return err
	}

	block, err := compressBlock(payload, compression)
	if err != nil {
		return err
	}

	blockLen, err := conv.IntToUint32(len(block))
	if err != nil {
		return err
	}
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], blockLen)
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = w.Write(block)
	return err
}

func encodeRegionPayload(desc *attribute.Descriptor, r *grid.Region) ([]byte, error) {
	var buf bytes.Buffer

	var scratch [4]byte
	for _, off := range r.Offsets() {
		binary.LittleEndian.PutUint32(scratch[:], off)
		buf.Write(scratch[:])
	}

	store := r.Attributes()
	for i := 0; i < desc.NumFields(); i++ {
		if err := encodeColumn(&buf, store.ColumnAt(i)); err != nil {
			return nil, err
		}
	}

	for _, name := range desc.Groups() {
		gc, ok := store.Group(name)
		if !ok {
			return nil, fmt.Errorf("region store missing group %q", name)
		}

		bits, err := gc.Bitmap().ToBytes()
		if err != nil {
			return nil, fmt.Errorf("serialize group %q: %w", name, err)
		}

		bitsLen, err := conv.IntToUint32(len(bits))
		if err != nil {
			return nil, err
		}
		binary.LittleEndian.PutUint32(scratch[:], bitsLen)
		buf.Write(scratch[:])
		buf.Write(bits)
	}

	return buf.Bytes(), nil
}
