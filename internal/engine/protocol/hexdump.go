package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	bytesPerLine = 16
	hexWidth     = bytesPerLine*3 - 1
	gutterSep    = " | "
)

// HexDump renders data 16 bytes per line: uppercase hex pairs padded to a
// fixed width, then an ASCII gutter with non-printable bytes shown as '.'.
func HexDump(data []byte) string {
	var b strings.Builder
	pairs := make([]string, 0, bytesPerLine)
	for off := 0; off < len(data); off += bytesPerLine {
		end := min(off+bytesPerLine, len(data))
		chunk := data[off:end]

		if off > 0 {
			b.WriteByte('\n')
		}
		pairs = pairs[:0]
		for _, c := range chunk {
			pairs = append(pairs, fmt.Sprintf("%02X", c))
		}
		fmt.Fprintf(&b, "%-*s%s", hexWidth, strings.Join(pairs, " "), gutterSep)
		for _, c := range chunk {
			if c >= 0x20 && c <= 0x7e {
				b.WriteByte(c)
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}

// ParseHexDump reverses HexDump, reading only the hex column of each line.
func ParseHexDump(dump string) ([]byte, error) {
	out := []byte{}
	if dump == "" {
		return out, nil
	}
	for n, line := range strings.Split(dump, "\n") {
		idx := strings.Index(line, gutterSep)
		if idx < 0 {
			return nil, fmt.Errorf("line %d: missing ascii gutter", n+1)
		}
		for _, pair := range strings.Fields(line[:idx]) {
			v, err := hex.DecodeString(pair)
			if err != nil || len(v) != 1 {
				return nil, fmt.Errorf("line %d: bad hex pair %q", n+1, pair)
			}
			out = append(out, v[0])
		}
	}
	return out, nil
}
