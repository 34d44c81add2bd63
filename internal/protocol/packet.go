package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

var ErrShortRead = errors.New("short read")

// Packet reads big-endian primitives from a payload.
type Packet struct {
	data []byte
	pos  int
}

func NewPacket(data []byte) *Packet {
	return &Packet{data: data}
}

// Remaining returns the number of unread bytes.
func (p *Packet) Remaining() int {
	return len(p.data) - p.pos
}

func (p *Packet) take(n int, what string) ([]byte, error) {
	if n < 0 || p.Remaining() < n {
		return nil, fmt.Errorf("reading %s at offset %d: %w", what, p.pos, ErrShortRead)
	}
	b := p.data[p.pos : p.pos+n]
	p.pos += n
	return b, nil
}

func (p *Packet) ReadBool() (bool, error) {
	b, err := p.take(1, "bool")
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (p *Packet) ReadInt16() (int16, error) {
	b, err := p.take(2, "int16")
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (p *Packet) ReadInt32() (int32, error) {
	b, err := p.take(4, "int32")
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (p *Packet) ReadInt64() (int64, error) {
	b, err := p.take(8, "int64")
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// ReadString reads a uint16 length-prefixed UTF-8 string.
func (p *Packet) ReadString() (string, error) {
	lb, err := p.take(2, "string length")
	if err != nil {
		return "", err
	}
	b, err := p.take(int(binary.BigEndian.Uint16(lb)), "string")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// PacketWriter builds payloads in the same encoding Packet reads.
type PacketWriter struct {
	buf []byte
}

func NewPacketWriter() *PacketWriter {
	return &PacketWriter{}
}

func (w *PacketWriter) WriteBool(v bool) *PacketWriter {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
	return w
}

func (w *PacketWriter) WriteInt16(v int16) *PacketWriter {
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(v))
	return w
}

func (w *PacketWriter) WriteInt32(v int32) *PacketWriter {
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(v))
	return w
}

func (w *PacketWriter) WriteInt64(v int64) *PacketWriter {
	w.buf = binary.BigEndian.AppendUint64(w.buf, uint64(v))
	return w
}

// WriteString writes s with a uint16 length prefix. Strings longer than
// math.MaxUint16 bytes are truncated.
func (w *PacketWriter) WriteString(s string) *PacketWriter {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	w.buf = binary.BigEndian.AppendUint16(w.buf, uint16(len(s)))
	w.buf = append(w.buf, s...)
	return w
}

func (w *PacketWriter) Bytes() []byte {
	return w.buf
}
