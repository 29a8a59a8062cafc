package midi

import (
	"bytes"
	"encoding/binary"
)

// Writer appends big-endian fields and variable-length quantities to a buffer.
type Writer struct {
	bytes.Buffer
}

func (w *Writer) WriteUint16(u uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], u)
	_, _ = w.Write(b[:])
}

func (w *Writer) WriteUint32(u uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], u)
	_, _ = w.Write(b[:])
}

func (w *Writer) WriteUint24(u uint32) {
	_, _ = w.Write([]byte{byte(u >> 16), byte(u >> 8), byte(u)})
}

// WriteVarUint32 writes u as a variable-length quantity. Values above
// 0x0FFFFFFF do not fit in four groups and are truncated to 28 bits.
func (w *Writer) WriteVarUint32(u uint32) {
	u &= 0x0FFFFFFF
	var b [4]byte
	i := len(b) - 1
	b[i] = byte(u & 0x7F)
	for u >>= 7; u > 0; u >>= 7 {
		i--
		b[i] = byte(u&0x7F) | 0x80
	}
	_, _ = w.Write(b[i:])
}

// WriteChunk writes a tagged, length-prefixed chunk.
func (w *Writer) WriteChunk(tag [4]byte, body []byte) {
	_, _ = w.Write(tag[:])
	w.WriteUint32(uint32(len(body)))
	_, _ = w.Write(body)
}
