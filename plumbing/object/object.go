// Package object contains methods and objects to work with git objects
package object

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"strconv"

	"github.com/goabstract/minigit/internal/errutil"
	"github.com/goabstract/minigit/internal/readutil"
	"github.com/goabstract/minigit/plumbing"
	"golang.org/x/xerrors"
)

var (
	// ErrTypeUnknown represents an error thrown when encountering an
	// unknown object type
	ErrTypeUnknown = errors.New("invalid object type")

	// ErrObjectInvalid represents an error thrown when an object contains
	// unexpected data or when the wrong object is provided to a method.
	ErrObjectInvalid = errors.New("invalid object")

	// ErrTreeInvalid represents an error thrown when parsing an invalid
	// tree object
	ErrTreeInvalid = errors.New("invalid tree")

	// ErrCommitInvalid represents an error thrown when parsing an invalid
	// commit object
	ErrCommitInvalid = errors.New("invalid commit")
)

// Type represents the type of an object as stored in a packfile
type Type int8

// List of all the possible object types
const (
	TypeCommit Type = 1
	TypeTree   Type = 2
	TypeBlob   Type = 3
	TypeTag    Type = 4
	// 5 is reserved for future use
	ObjectDeltaOFS Type = 6
	ObjectDeltaRef Type = 7
)

func (t Type) String() string {
	switch t {
	case TypeCommit:
		return "commit"
	case TypeTree:
		return "tree"
	case TypeBlob:
		return "blob"
	case TypeTag:
		return "tag"
	case ObjectDeltaOFS:
		return "ofs-delta"
	case ObjectDeltaRef:
		return "ref-delta"
	default:
		panic(fmt.Sprintf("unknown object type %d", t))
	}
}

// IsValid checks if the object type is an existing type
func (t Type) IsValid() bool {
	switch t {
	case TypeCommit,
		TypeTree,
		TypeBlob,
		TypeTag,
		ObjectDeltaOFS,
		ObjectDeltaRef:
		return true
	default:
		return false
	}
}

// NewTypeFromString returns a Type from its string
// representation
func NewTypeFromString(t string) (Type, error) {
	switch t {
	case "commit":
		return TypeCommit, nil
	case "tree":
		return TypeTree, nil
	case "blob":
		return TypeBlob, nil
	default:
		return 0, ErrTypeUnknown
	}
}

// Object represents a git object. An object can be of multiple types
// but they all share similarities (same storage system, same header,
// etc.).
// Objects are stored in .git/objects as standalone zlib compressed
// files (loose objects), or arrive bundled in a packfile.
// https://git-scm.com/book/en/v2/Git-Internals-Git-Objects
type Object struct {
	id      plumbing.Oid
	typ     Type
	content []byte
}

// New creates a new git object of the given type
func New(typ Type, content []byte) *Object {
	o := &Object{
		typ:     typ,
		content: content,
	}
	o.id = plumbing.NewOidFromContent(o.framed())
	return o
}

// NewFromCompressed returns an object from its zlib compressed framed
// form, as read from the loose-object store.
// The format of the data, once decompressed, is an ascii encoded type,
// an ascii encoded space, then an ascii encoded length of the object,
// then a null character, then the body of the object
func NewFromCompressed(data []byte) (o *Object, err error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, xerrors.Errorf("could not decompress object: %w", err)
	}
	defer errutil.Close(zr, &err)

	buf := new(bytes.Buffer)
	if _, err = buf.ReadFrom(zr); err != nil {
		return nil, xerrors.Errorf("could not read object: %w", err)
	}
	return NewFromFramed(buf.Bytes())
}

// NewFromFramed returns an object from its framed representation
// "<type> <size>\0<content>".
// The declared size is advisory on this path: the body is everything
// after the NULL char
func NewFromFramed(data []byte) (*Object, error) {
	typ := readutil.ReadTo(data, ' ')
	if typ == nil {
		return nil, xerrors.Errorf("could not find object type: %w", ErrObjectInvalid)
	}
	oType, err := NewTypeFromString(string(typ))
	if err != nil {
		return nil, xerrors.Errorf("unsupported type %q: %w", typ, err)
	}
	offset := len(typ) + 1 // +1 for the space

	size := readutil.ReadTo(data[offset:], 0)
	if size == nil {
		return nil, xerrors.Errorf("could not find object size: %w", ErrObjectInvalid)
	}
	if _, err = strconv.ParseUint(string(size), 10, 64); err != nil {
		return nil, xerrors.Errorf("invalid size %q: %w", size, ErrObjectInvalid)
	}
	offset += len(size) + 1 // +1 for the NULL char

	return New(oType, data[offset:]), nil
}

// ID returns the ID of the object
func (o *Object) ID() plumbing.Oid {
	return o.id
}

// Size returns the size of the object
func (o *Object) Size() int {
	return len(o.content)
}

// Type returns the Type for this object
func (o *Object) Type() Type {
	return o.typ
}

// Bytes returns the object's contents
func (o *Object) Bytes() []byte {
	return o.content
}

// framed returns the object in its hashable on-disk representation:
// [type] [size][NULL][content]
// The type in ascii, followed by a space, followed by the size in ascii,
// followed by a null character (0), followed by the object data
func (o *Object) framed() []byte {
	// Quick reminder that the Write* methods on bytes.Buffer never fail,
	// the error returned is always nil
	w := new(bytes.Buffer)
	w.WriteString(o.typ.String())
	w.WriteRune(' ')
	w.WriteString(strconv.Itoa(o.Size()))
	w.WriteByte(0)
	w.Write(o.content)
	return w.Bytes()
}

// Compress returns the object zlib compressed.
// The stream is written without compression, any valid zlib stream is
// accepted back on read
func (o *Object) Compress() (data []byte, err error) {
	compressed := new(bytes.Buffer)
	zw, err := zlib.NewWriterLevel(compressed, zlib.NoCompression)
	if err != nil {
		return nil, xerrors.Errorf("could not create zlib writer: %w", err)
	}

	if _, err = zw.Write(o.framed()); err != nil {
		zw.Close() //nolint:errcheck // it already failed
		return nil, xerrors.Errorf("could not zlib the object: %w", err)
	}
	// Close() must happen before we access the buffer, it flushes the
	// last chunk and the checksum
	if err = zw.Close(); err != nil {
		return nil, xerrors.Errorf("could not finalize the zlib stream: %w", err)
	}
	return compressed.Bytes(), nil
}

// AsBlob parses the object as Blob
func (o *Object) AsBlob() (*Blob, error) {
	if o.typ != TypeBlob {
		return nil, xerrors.Errorf("type %s is not a blob: %w", o.typ, ErrObjectInvalid)
	}
	return NewBlob(o), nil
}

// AsTree parses the object as Tree
func (o *Object) AsTree() (*Tree, error) {
	return NewTreeFromObject(o)
}

// AsCommit parses the object as Commit
func (o *Object) AsCommit() (*Commit, error) {
	return NewCommitFromObject(o)
}
