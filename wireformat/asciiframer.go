package wireformat

import "bytes"

// lineReader accumulates bytes across Feed calls until a '\n' terminator is
// seen, stripping a trailing '\r' (spec.md §4.4.2), grounded on the
// teacher's actisense.RawASCIIDevice/N2kASCIIDevice read-buffer pattern.
type lineReader struct {
	buf []byte
}

// Feed appends data and returns every complete line found, each with its
// trailing \r\n (or \n) stripped.
func (l *lineReader) Feed(data []byte) [][]byte {
	l.buf = append(l.buf, data...)

	var lines [][]byte
	for {
		idx := bytes.IndexByte(l.buf, '\n')
		if idx == -1 {
			break
		}
		line := l.buf[:idx]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		cp := make([]byte, len(line))
		copy(cp, line)
		lines = append(lines, cp)
		l.buf = l.buf[idx+1:]
	}
	return lines
}
