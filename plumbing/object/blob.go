package object

import "github.com/goabstract/minigit/plumbing"

// Blob represents a blob object
type Blob struct {
	rawObject *Object
}

// NewBlob returns a new blob from an object
func NewBlob(o *Object) *Blob {
	return &Blob{rawObject: o}
}

// ID returns the object's ID
func (b *Blob) ID() plumbing.Oid {
	return b.rawObject.ID()
}

// Size returns the blob size
func (b *Blob) Size() int {
	return b.rawObject.Size()
}

// Bytes returns the blob's contents
func (b *Blob) Bytes() []byte {
	return b.rawObject.Bytes()
}

// IsBinary returns whether the blob contains binary data
func (b *Blob) IsBinary() bool {
	for _, c := range b.rawObject.Bytes() {
		if c == 0 {
			return true
		}
	}
	return false
}

// ToObject returns the underlying Object
func (b *Blob) ToObject() *Object {
	return b.rawObject
}
