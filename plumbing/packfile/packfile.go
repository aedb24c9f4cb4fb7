// Package packfile contains methods and structs to read packfiles
package packfile

import (
	"bytes"
	"compress/zlib"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"io"

	"github.com/goabstract/minigit/internal/errutil"
	"github.com/goabstract/minigit/plumbing"
	"github.com/goabstract/minigit/plumbing/object"
	"golang.org/x/xerrors"
)

const (
	// headerSize contains the size of the header of a packfile.
	// The first 4 bytes contain the magic, the 4 next bytes contain the
	// version, and the last 4 bytes contain the number of objects in
	// the packfile, for a total of 12 bytes
	headerSize = 12
)

func packfileMagic() []byte {
	return []byte{'P', 'A', 'C', 'K'}
}

func packfileVersion() []byte {
	return []byte{0, 0, 0, 2}
}

var (
	// ErrInvalidMagic is an error thrown when a stream doesn't have
	// the expected magic
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrInvalidVersion is an error thrown when a stream has an
	// unsupported version
	ErrInvalidVersion = errors.New("invalid version")
	// ErrIntOverflow is an error thrown when the packfile couldn't
	// be parsed because some data couldn't fit in an int64
	ErrIntOverflow = errors.New("int64 overflow")
	// ErrChecksumMismatch is an error thrown when the SHA1 sum at the
	// end of the stream doesn't match the stream's content
	ErrChecksumMismatch = errors.New("packfile checksum mismatch")
	// ErrMissingBase is an error thrown when a ref-delta references a
	// base object that didn't appear earlier in the stream
	ErrMissingBase = errors.New("delta base object not found")
	// ErrUnsupportedType is an error thrown when the stream contains an
	// object type we cannot process (like ofs-delta)
	ErrUnsupportedType = errors.New("unsupported object type")
	// ErrInvalidDelta is an error thrown when a delta's instructions
	// cannot be applied to its base object
	ErrInvalidDelta = errors.New("invalid delta")
	// ErrSizeMismatch is an error thrown when an object's inflated size
	// doesn't match the size declared in its header
	ErrSizeMismatch = errors.New("object size mismatch")
)

// Pack represents a parsed packfile: the objects of the stream, in
// stream order.
// Objects are keyed by id: an object that appears more than once in the
// stream is stored once, at the position of its first appearance.
// The order matters: a ref-delta may only reference a base that
// appeared at an earlier position, so resolution during the pass only
// needs the objects already inserted.
// https://github.com/git/git/blob/master/Documentation/technical/pack-format.txt
type Pack struct {
	version uint32
	oids    []plumbing.Oid
	objects map[plumbing.Oid]*object.Object
}

// Parse reads a whole packfile stream.
// The stream has shape "PACK" <version:4> <count:4> <objects...> <sha1:20>,
// each object being a variable-length header followed by a zlib stream
// (ref-deltas carry the 20-byte base id between the two)
func Parse(data []byte) (*Pack, error) {
	if len(data) < headerSize+plumbing.OidSize {
		return nil, xerrors.Errorf("stream too short (%d bytes): %w", len(data), ErrInvalidMagic)
	}
	if !bytes.Equal(data[0:4], packfileMagic()) {
		return nil, xerrors.Errorf("invalid header: %w", ErrInvalidMagic)
	}
	if !bytes.Equal(data[4:8], packfileVersion()) {
		return nil, xerrors.Errorf("invalid header: %w", ErrInvalidVersion)
	}
	objectCount := binary.BigEndian.Uint32(data[8:headerSize])

	// The last 20 bytes are the SHA1 sum of everything before them
	trailerOffset := len(data) - plumbing.OidSize
	sum := sha1.Sum(data[:trailerOffset])
	if !bytes.Equal(sum[:], data[trailerOffset:]) {
		return nil, xerrors.Errorf("invalid trailer: %w", ErrChecksumMismatch)
	}

	p := &Pack{
		version: binary.BigEndian.Uint32(data[4:8]),
		objects: map[plumbing.Oid]*object.Object{},
	}

	// bytes.Reader implements io.ByteReader, which guarantees the zlib
	// reader won't consume bytes past the end of each stream. The
	// reader's position after each inflate is therefore the start of
	// the next object header
	r := bytes.NewReader(data[headerSize:trailerOffset])
	for i := uint32(0); i < objectCount; i++ {
		o, err := p.parseObject(r)
		if err != nil {
			return nil, xerrors.Errorf("could not parse object %d/%d: %w", i+1, objectCount, err)
		}
		p.insert(o)
	}

	return p, nil
}

// parseObject reads a single object off the stream.
// The object header is variable-length: the first byte contains
// - a MSB (1 bit)
// - the object type (3 bits)
// - the beginning of the object size (4 bits)
// Subsequent bytes (read while the previous MSB is 1) contain:
// - a MSB (1 bit)
// - the next part of the size (7 bits)
// The chunks of the size are little-endian encoded (right to left):
// final_size = [part_2][part_1][part_0]
func (p *Pack) parseObject(r *bytes.Reader) (*object.Object, error) {
	first, err := r.ReadByte()
	if err != nil {
		return nil, xerrors.Errorf("could not read object header: %w", err)
	}

	// To extract the type (bits 2, 3, and 4) we apply a mask to unset
	// all the bits we don't want, then we move our 3 bits to the
	// right with ">> 4"
	// value       : MTTT_SSSS // M = MSB ; T = type ; S = size
	// & 0111_0000 : 0TTT_0000
	// >> 4        : 0000_0TTT
	typ := object.Type((first & 0b_0111_0000) >> 4)

	// The first part of the size is on the last 4 bits of the byte
	// value       : MTTT_SSSS // M = MSB ; T = type; S = size
	// & 0000_1111 : 0000_SSSS
	size := uint64(first & 0b_0000_1111)
	shift := uint(4)
	for b := first; isMSBSet(b); shift += 7 {
		if b, err = r.ReadByte(); err != nil {
			return nil, xerrors.Errorf("could not read object size: %w", err)
		}
		if shift > 63 {
			return nil, ErrIntOverflow
		}
		size |= uint64(unsetMSB(b)) << shift
	}

	switch typ {
	case object.TypeCommit, object.TypeTree, object.TypeBlob, object.TypeTag:
		body, err := inflate(r)
		if err != nil {
			return nil, err
		}
		if uint64(len(body)) != size {
			return nil, xerrors.Errorf("expected %d bytes, got %d: %w", size, len(body), ErrSizeMismatch)
		}
		// Annotated tags stay in the object graph but we don't
		// interpret their body; they're coerced into commits
		if typ == object.TypeTag {
			typ = object.TypeCommit
		}
		return object.New(typ, body), nil
	case object.ObjectDeltaRef:
		baseID := make([]byte, plumbing.OidSize)
		if _, err := io.ReadFull(r, baseID); err != nil {
			return nil, xerrors.Errorf("could not read delta base id: %w", err)
		}
		baseOid, err := plumbing.NewOidFromHex(baseID)
		if err != nil {
			return nil, xerrors.Errorf("could not parse delta base id %#v: %w", baseID, err)
		}
		delta, err := inflate(r)
		if err != nil {
			return nil, err
		}
		if uint64(len(delta)) != size {
			return nil, xerrors.Errorf("expected %d bytes of delta, got %d: %w", size, len(delta), ErrSizeMismatch)
		}

		// Bases must appear earlier in the stream than their deltas,
		// so the base is already in the map
		base, found := p.objects[baseOid]
		if !found {
			return nil, xerrors.Errorf("base %s: %w", baseOid.String(), ErrMissingBase)
		}
		body, err := applyDelta(base.Bytes(), delta)
		if err != nil {
			return nil, err
		}
		// The rebuilt object inherits the kind of its base
		return object.New(base.Type(), body), nil
	case object.ObjectDeltaOFS:
		return nil, xerrors.Errorf("ofs-delta: %w", ErrUnsupportedType)
	default:
		return nil, xerrors.Errorf("type %d: %w", typ, ErrUnsupportedType)
	}
}

// applyDelta rebuilds an object by running a delta's instructions
// against the content of its base.
// The delta starts with two variable-length sizes (the expected size of
// the base, then the size of the target), followed by COPY and INSERT
// instructions until the end of the buffer
func applyDelta(base, delta []byte) ([]byte, error) {
	sourceSize, read, err := readDeltaSize(delta)
	if err != nil {
		return nil, xerrors.Errorf("couldn't read source size of delta: %w", err)
	}
	offset := read
	if sourceSize != uint64(len(base)) {
		return nil, xerrors.Errorf("invalid base object size. expected %d, got %d: %w", sourceSize, len(base), ErrInvalidDelta)
	}
	targetSize, read, err := readDeltaSize(delta[offset:])
	if err != nil {
		return nil, xerrors.Errorf("couldn't read target size of delta: %w", err)
	}
	offset += read

	instructions := delta[offset:]
	var out bytes.Buffer

	// We don't do a for-range loop because an instruction can be over
	// multiple bytes
	for i := 0; i < len(instructions); i++ {
		instr := instructions[i]

		// there's 2 types of instruction: COPY and INSERT.
		// If the MSB of the byte is 1 it's a COPY, otherwise it's
		// an INSERT
		switch isMSBSet(instr) {
		case true: // COPY
			// the last 4 bits of the byte tell which of the 4 offset
			// bytes follow. Example: with 1010 the second and fourth
			// bytes of the offset are in the stream, the others are 0
			offsetInfo := uint(instr & 0b_0000_1111)
			offsetBytes := make([]byte, 4)
			byteRead := 0
			for j := uint(0); j < 4; j++ {
				if (offsetInfo >> j & 1) == 1 {
					if i+1+byteRead >= len(instructions) {
						return nil, xerrors.Errorf("copy offset ends past the delta: %w", ErrInvalidDelta)
					}
					offsetBytes[j] = instructions[i+1+byteRead]
					byteRead++
				}
			}
			copyOffset := binary.LittleEndian.Uint32(offsetBytes)
			i += byteRead

			// the next 3 bits after the MSB tell which of the 3 size
			// bytes follow, assembled the same way
			sizeInfo := uint((instr & 0b_0111_0000) >> 4)
			sizeBytes := make([]byte, 4)
			byteRead = 0
			for j := uint(0); j < 3; j++ {
				if (sizeInfo >> j & 1) == 1 {
					if i+1+byteRead >= len(instructions) {
						return nil, xerrors.Errorf("copy size ends past the delta: %w", ErrInvalidDelta)
					}
					sizeBytes[j] = instructions[i+1+byteRead]
					byteRead++
				}
			}
			copySize := binary.LittleEndian.Uint32(sizeBytes)
			i += byteRead

			// A size of 0 means 0x10000 bytes
			if copySize == 0 {
				copySize = 0x10000
			}
			if uint64(copyOffset)+uint64(copySize) > uint64(len(base)) {
				return nil, xerrors.Errorf("copy of %d bytes at offset %d ends past the base: %w", copySize, copyOffset, ErrInvalidDelta)
			}
			out.Write(base[copyOffset : copyOffset+copySize])
		case false: // INSERT
			// $instr contains the amount of bytes we need to copy from
			// the delta to the output
			if instr == 0 {
				return nil, xerrors.Errorf("insert of 0 bytes: %w", ErrInvalidDelta)
			}
			start := i + 1
			end := start + int(instr)
			if end > len(instructions) {
				return nil, xerrors.Errorf("insert of %d bytes ends past the delta: %w", instr, ErrInvalidDelta)
			}
			out.Write(instructions[start:end])
			i += int(instr)
		}
	}

	if uint64(out.Len()) != targetSize {
		return nil, xerrors.Errorf("expected a target of %d bytes, got %d: %w", targetSize, out.Len(), ErrInvalidDelta)
	}
	return out.Bytes(), nil
}

// insert records an object, keeping the insertion order
func (p *Pack) insert(o *object.Object) {
	if _, found := p.objects[o.ID()]; !found {
		p.oids = append(p.oids, o.ID())
	}
	p.objects[o.ID()] = o
}

// Version returns the version of the packfile
func (p *Pack) Version() uint32 {
	return p.version
}

// ObjectCount returns the number of distinct objects in the packfile
func (p *Pack) ObjectCount() int {
	return len(p.oids)
}

// Objects returns the objects of the packfile, in stream order
func (p *Pack) Objects() []*object.Object {
	out := make([]*object.Object, len(p.oids))
	for i, oid := range p.oids {
		out[i] = p.objects[oid]
	}
	return out
}

// Object returns the object that has the given id
func (p *Pack) Object(oid plumbing.Oid) (*object.Object, error) {
	o, found := p.objects[oid]
	if !found {
		return nil, plumbing.ErrObjectNotFound
	}
	return o, nil
}

// inflate reads a single zlib stream off the reader and returns its
// decompressed content. The reader is left on the first byte following
// the stream
func inflate(r *bytes.Reader) (data []byte, err error) {
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, xerrors.Errorf("could not get zlib reader: %w", err)
	}
	defer errutil.Close(zr, &err)

	buf := new(bytes.Buffer)
	if _, err = io.Copy(buf, zr); err != nil {
		return nil, xerrors.Errorf("could not decompress: %w", err)
	}
	return buf.Bytes(), nil
}

// readDeltaSize reads a variable-length size off the start of a delta.
// Each byte contributes 7 bits, little-endian, and its MSB says whether
// the next byte is part of the size too
func readDeltaSize(data []byte) (size uint64, bytesRead int, err error) {
	for _, b := range data {
		if bytesRead*7 > 63 {
			return 0, 0, ErrIntOverflow
		}
		size |= uint64(unsetMSB(b)) << (uint(bytesRead) * 7)
		bytesRead++

		// No more MSB? Then we're done reading the size
		if !isMSBSet(b) {
			return size, bytesRead, nil
		}
	}
	return 0, 0, xerrors.Errorf("delta size never terminates: %w", ErrInvalidDelta)
}

// isMSBSet checks if the MSB of a byte is set to 1.
// The MSB is the first bit on the left
func isMSBSet(b byte) bool {
	return b >= 0b_1000_0000
}

// unsetMSB sets the most left bit of the byte to 0
func unsetMSB(b byte) byte {
	// value       : XXXX_XXXX
	// & 0111_1111 : 0XXX_XXXX
	return b & 0b_0111_1111
}
