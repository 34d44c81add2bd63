package listener

import (
	"bytes"
	"io"
)

var (
	crlf   = []byte("\r\n")
	crnul  = []byte("\r\x00")
	cr     = []byte("\r")
	lf     = []byte("\n")
	nulChr = []byte("\x00")
)

// lineEndings adapts a terminal connection to plain \n line endings.
// Reads normalize \r\n, \r\x00 (telnet) and bare \r (ssh without a pty) to \n;
// writes expand \n to \r\n.
type lineEndings struct {
	rw io.ReadWriter
}

func newCRLFReadWriter(rw io.ReadWriter) io.ReadWriter {
	return &lineEndings{rw: rw}
}

func (l *lineEndings) Read(p []byte) (int, error) {
	n, err := l.rw.Read(p)
	if n > 0 {
		data := bytes.ReplaceAll(p[:n], crlf, lf)
		data = bytes.ReplaceAll(data, crnul, lf)
		data = bytes.ReplaceAll(data, cr, lf)
		data = bytes.ReplaceAll(data, nulChr, nil)
		n = copy(p, data)
	}
	return n, err
}

func (l *lineEndings) Write(p []byte) (int, error) {
	_, err := l.rw.Write(bytes.ReplaceAll(p, lf, crlf))
	return len(p), err
}
