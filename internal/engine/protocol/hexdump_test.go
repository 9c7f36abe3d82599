package protocol

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
)

func TestHexDump_Format(t *testing.T) {
	data := []byte("ABCDEFGHIJKLMNOP\x00\x01hi")
	dump := HexDump(data)
	lines := strings.Split(dump, "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d:\n%s", len(lines), dump)
	}
	want0 := "41 42 43 44 45 46 47 48 49 4A 4B 4C 4D 4E 4F 50 | ABCDEFGHIJKLMNOP"
	if lines[0] != want0 {
		t.Errorf("Expected %q, got %q", want0, lines[0])
	}
	want1 := "00 01 68 69" + strings.Repeat(" ", 47-11) + " | ..hi"
	if lines[1] != want1 {
		t.Errorf("Expected %q, got %q", want1, lines[1])
	}
}

func TestHexDump_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for _, n := range []int{0, 1, 15, 16, 17, 64, 1514} {
		data := make([]byte, n)
		rng.Read(data)
		// Make sure the gutter separator can appear in the ascii column.
		if n > 3 {
			copy(data, " | ")
		}

		got, err := ParseHexDump(HexDump(data))
		if err != nil {
			t.Fatalf("len %d: parse failed: %v", n, err)
		}
		if !bytes.Equal(got, data) {
			t.Errorf("len %d: round trip mismatch", n)
		}
	}
}

func TestParseHexDump_Malformed(t *testing.T) {
	if _, err := ParseHexDump("ZZ 01 | .."); err == nil {
		t.Errorf("Expected an error for a bad hex pair")
	}
	if _, err := ParseHexDump("01 02"); err == nil {
		t.Errorf("Expected an error for a missing gutter")
	}
}
