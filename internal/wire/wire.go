// Package wire writes the request record the broker sends to the manager
// over an already-open channel.
package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
)

// EOF is the sentinel closing a record.
const EOF = "eof"

// TokenWriter owns the byte framing of a channel.
type TokenWriter interface {
	WriteKeyToken(key string, value int) error
	WriteString(s string) error
}

// WriteRequest writes the uid field followed by the end sentinel.
func WriteRequest(w TokenWriter, uid int) error {
	if err := w.WriteKeyToken("uid", uid); err != nil {
		return fmt.Errorf("write uid: %w", err)
	}
	if err := w.WriteString(EOF); err != nil {
		return fmt.Errorf("write eof: %w", err)
	}
	return nil
}

// Framer is the manager's native framing: a string is a 4-byte big-endian
// length followed by its bytes, and a key token is the key string followed
// by the decimal value as a string.
type Framer struct {
	w io.Writer
}

// NewFramer returns a Framer writing to w.
func NewFramer(w io.Writer) *Framer {
	return &Framer{w: w}
}

// WriteString implements TokenWriter.
func (f *Framer) WriteString(s string) error {
	if len(s) > math.MaxInt32 {
		return fmt.Errorf("string too long: %d bytes", len(s))
	}
	buf := make([]byte, 4+len(s))
	binary.BigEndian.PutUint32(buf, uint32(len(s)))
	copy(buf[4:], s)
	_, err := f.w.Write(buf)
	return err
}

// WriteKeyToken implements TokenWriter.
func (f *Framer) WriteKeyToken(key string, value int) error {
	if err := f.WriteString(key); err != nil {
		return err
	}
	return f.WriteString(strconv.Itoa(value))
}
