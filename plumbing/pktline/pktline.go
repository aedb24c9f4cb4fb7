// Package pktline implements the pkt-line framing used by the git wire
// protocols.
// A pkt-line is a 4-char ascii hex length (which includes the 4 chars of
// the length itself) followed by the payload. The length 0000 is a
// distinguished flush packet with no payload.
// https://git-scm.com/docs/protocol-common#_pkt_line_format
package pktline

import (
	"errors"
	"strconv"

	"golang.org/x/xerrors"
)

const (
	// lenSize is the size of the length prefix, in bytes
	lenSize = 4

	// MaxPayloadSize is the largest payload a single pkt-line can carry
	MaxPayloadSize = 65516
)

// ErrInvalidPktLine is an error thrown when a pkt-line cannot be decoded
var ErrInvalidPktLine = errors.New("invalid pkt-line")

// Line represents a single decoded pkt-line
type Line struct {
	// Payload contains the data of the line, without the length prefix.
	// Empty for a flush packet
	Payload []byte

	// Flush reports whether the line is a flush packet (0000)
	Flush bool
}

// Scanner is a pull-based iterator over the pkt-lines of a byte slice.
// The sequence is finite: scanning stops when fewer than 4 bytes
// remain. A scanner can be restarted by re-wrapping the bytes in a
// new Scanner
type Scanner struct {
	data []byte
	off  int

	line Line
	err  error
}

// NewScanner returns a Scanner reading from data
func NewScanner(data []byte) *Scanner {
	return &Scanner{data: data}
}

// Scan advances to the next pkt-line. It returns false when the stream
// is exhausted or malformed; Err() tells the two apart
func (s *Scanner) Scan() bool {
	if s.err != nil {
		return false
	}
	if len(s.data)-s.off < lenSize {
		return false
	}

	size, err := strconv.ParseUint(string(s.data[s.off:s.off+lenSize]), 16, 32)
	if err != nil {
		s.err = xerrors.Errorf("bad length prefix %q: %w", s.data[s.off:s.off+lenSize], ErrInvalidPktLine)
		return false
	}

	// A flush packet has no payload, and its length doesn't follow the
	// "length includes the prefix" rule
	if size == 0 {
		s.off += lenSize
		s.line = Line{Flush: true}
		return true
	}

	if size < lenSize {
		s.err = xerrors.Errorf("length prefix %d smaller than itself: %w", size, ErrInvalidPktLine)
		return false
	}
	if s.off+int(size) > len(s.data) {
		s.err = xerrors.Errorf("length prefix %d overflows the stream: %w", size, ErrInvalidPktLine)
		return false
	}

	s.line = Line{Payload: s.data[s.off+lenSize : s.off+int(size)]}
	s.off += int(size)
	return true
}

// Line returns the last line decoded by Scan
func (s *Scanner) Line() Line {
	return s.line
}

// Err returns the first decoding error encountered, if any
func (s *Scanner) Err() error {
	return s.err
}

// Append appends payload to dst as a pkt-line and returns the
// extended buffer
func Append(dst, payload []byte) []byte {
	size := len(payload) + lenSize
	dst = append(dst, []byte(encodeLen(size))...)
	return append(dst, payload...)
}

// AppendFlush appends a flush packet to dst and returns the extended
// buffer
func AppendFlush(dst []byte) []byte {
	return append(dst, '0', '0', '0', '0')
}

func encodeLen(size int) string {
	const hexChars = "0123456789abcdef"
	return string([]byte{
		hexChars[size>>12&0xf],
		hexChars[size>>8&0xf],
		hexChars[size>>4&0xf],
		hexChars[size&0xf],
	})
}
