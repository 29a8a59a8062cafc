package midi

import (
	"encoding/binary"
)

// Reader is a cursor over a byte buffer.
type Reader struct {
	b   []byte
	pos int
}

func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Pos returns the offset of the next unread byte.
func (r *Reader) Pos() int {
	return r.pos
}

// Len returns the number of unread bytes.
func (r *Reader) Len() int {
	return len(r.b) - r.pos
}

func (r *Reader) need(n int) error {
	if n < 0 || r.Len() < n {
		return ErrTruncated
	}
	return nil
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	b := r.b[r.pos]
	r.pos++
	return b, nil
}

// PeekByte returns the next byte without consuming it.
func (r *Reader) PeekByte() (byte, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	return r.b[r.pos], nil
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	u := binary.BigEndian.Uint16(r.b[r.pos:])
	r.pos += 2
	return u, nil
}

func (r *Reader) ReadUint24() (uint32, error) {
	if err := r.need(3); err != nil {
		return 0, err
	}
	u := uint32(r.b[r.pos])<<16 | uint32(r.b[r.pos+1])<<8 | uint32(r.b[r.pos+2])
	r.pos += 3
	return u, nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	u := binary.BigEndian.Uint32(r.b[r.pos:])
	r.pos += 4
	return u, nil
}

// ReadTag reads a four byte chunk tag.
func (r *Reader) ReadTag() (tag [4]byte, err error) {
	if err = r.need(4); err != nil {
		return
	}
	copy(tag[:], r.b[r.pos:])
	r.pos += 4
	return
}

// ReadBytes returns the next n bytes. The slice aliases the buffer.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.b[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) Skip(n int) error {
	if err := r.need(n); err != nil {
		return err
	}
	r.pos += n
	return nil
}

// ReadVarUint32 reads a variable-length quantity: 7 bits per byte, most
// significant group first, high bit set on every byte but the last.
// Quantities are at most four bytes long.
func (r *Reader) ReadVarUint32() (u uint32, err error) {
	var b byte
	for i := 0; i < 4; i++ {
		b, err = r.ReadByte()
		if err != nil {
			return
		}
		u = u<<7 | uint32(b&0x7F)
		if b < 0x80 {
			return
		}
	}
	return u, ErrVarLen
}
