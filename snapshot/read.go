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

// hashingReader feeds everything it reads through a CRC32 so the trailer can
// be verified at the end of the stream.
type hashingReader struct {
	r    io.Reader
	hash hash.Hash32
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{
		r:    r,
		hash: crc32.NewIEEE(),
	}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.hash.Write(p[:n])
	}
	return n, err
}

// Read deserializes a grid from a snapshot stream. The CRC32 trailer is
// verified against the stream contents; a mismatch returns
// ErrChecksumMismatch.
func Read(r io.Reader) (*grid.Grid, error) {
	hr := newHashingReader(r)

	var header fileHeader
	if err := binary.Read(hr, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return nil, ErrInvalidMagic
	}
	if header.Version != Version {
		return nil, fmt.Errorf("%w: 0x%08x", ErrInvalidVersion, header.Version)
	}

	compression := Compression(header.Compression)

	desc, err := readDescriptor(hr)
	if err != nil {
		return nil, err
	}

	g := grid.New(desc)

	for i := uint32(0); i < header.RegionCount; i++ {
		if err := readRegion(hr, g, desc, compression); err != nil {
			return nil, fmt.Errorf("read region %d: %w", i, err)
		}
	}

	// The trailer is read from the raw reader so it is excluded from the
	// running checksum.
	sum := hr.hash.Sum32()
	var trailer [4]byte
	if _, err := io.ReadFull(r, trailer[:]); err != nil {
		return nil, fmt.Errorf("read trailer: %w", err)
	}
	if binary.LittleEndian.Uint32(trailer[:]) != sum {
		return nil, ErrChecksumMismatch
	}

	return g, nil
}

func readUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

func readUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func readStringStream(r io.Reader) (string, error) {
	n, err := readUint16(r)
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func readDescriptor(r io.Reader) (*attribute.Descriptor, error) {
	fieldCount, err := readUint16(r)
	if err != nil {
		return nil, fmt.Errorf("read field count: %w", err)
	}

	fields := make([]attribute.Field, fieldCount)
	for i := range fields {
		name, err := readStringStream(r)
		if err != nil {
			return nil, fmt.Errorf("read field name: %w", err)
		}
		var kindBuf [1]byte
		if _, err := io.ReadFull(r, kindBuf[:]); err != nil {
			return nil, fmt.Errorf("read field kind: %w", err)
		}
		fields[i] = attribute.Field{Name: name, Kind: attribute.Kind(kindBuf[0])}
	}

	desc, err := attribute.NewDescriptor(fields...)
	if err != nil {
		return nil, err
	}

	groupCount, err := readUint16(r)
	if err != nil {
		return nil, fmt.Errorf("read group count: %w", err)
	}
	for i := uint16(0); i < groupCount; i++ {
		name, err := readStringStream(r)
		if err != nil {
			return nil, fmt.Errorf("read group name: %w", err)
		}
		if err := desc.DeclareGroup(name); err != nil {
			return nil, err
		}
	}

	return desc, nil
}

func readRegion(r io.Reader, g *grid.Grid, desc *attribute.Descriptor, compression Compression) error {
	var originBuf [3]int32
	if err := binary.Read(r, binary.LittleEndian, &originBuf); err != nil {
		return fmt.Errorf("read origin: %w", err)
	}
	origin := grid.Coord{X: originBuf[0], Y: originBuf[1], Z: originBuf[2]}

	blockLen, err := readUint32(r)
	if err != nil {
		return fmt.Errorf("read block length: %w", err)
	}
	block := make([]byte, blockLen)
	if _, err := io.ReadFull(r, block); err != nil {
		return fmt.Errorf("read block: %w", err)
	}

	payload, err := decompressBlock(block, compression)
	if err != nil {
		return err
	}

	store, offsets, err := decodeRegionPayload(desc, payload)
	if err != nil {
		return err
	}

	region, err := g.AddRegion(origin)
	if err != nil {
		return err
	}
	return region.ReplaceAttributes(store, offsets)
}

func decodeRegionPayload(desc *attribute.Descriptor, payload []byte) (*attribute.Store, []uint32, error) {
	buf := bytes.NewReader(payload)

	offsets := make([]uint32, grid.NumCells)
	var prev uint32
	for i := range offsets {
		off, err := readUint32(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("read offsets: %w", err)
		}
		if off < prev {
			return nil, nil, fmt.Errorf("offset table not monotonic at cell %d", i)
		}
		offsets[i] = off
		prev = off
	}

	n, err := conv.Uint32ToInt(offsets[grid.NumCells-1])
	if err != nil {
		return nil, nil, err
	}

	store, err := attribute.NewStore(desc, n)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < desc.NumFields(); i++ {
		if err := decodeColumn(buf, store.ColumnAt(i), n); err != nil {
			return nil, nil, fmt.Errorf("decode field %q: %w", desc.Fields()[i].Name, err)
		}
	}

	for _, name := range desc.Groups() {
		bitsLen, err := readUint32(buf)
		if err != nil {
			return nil, nil, fmt.Errorf("read group %q length: %w", name, err)
		}
		bits := make([]byte, bitsLen)
		if _, err := io.ReadFull(buf, bits); err != nil {
			return nil, nil, fmt.Errorf("read group %q: %w", name, err)
		}

		gc, ok := store.Group(name)
		if !ok {
			return nil, nil, fmt.Errorf("store missing group %q", name)
		}
		if _, err := gc.Bitmap().ReadFrom(bytes.NewReader(bits)); err != nil {
			return nil, nil, fmt.Errorf("deserialize group %q: %w", name, err)
		}
		if !gc.Bitmap().IsEmpty() && gc.Bitmap().Maximum() >= uint32(n) {
			return nil, nil, fmt.Errorf("group %q has member %d beyond point count %d", name, gc.Bitmap().Maximum(), n)
		}
	}

	if buf.Len() != 0 {
		return nil, nil, fmt.Errorf("%d trailing bytes in region payload", buf.Len())
	}

	return store, offsets, nil
}
