package mirror

import (
	"bytes"
	"testing"
)

func TestCompressDecompressRoundTrip(t *testing.T) {
	src := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 20)
	blob, err := compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	got, err := decompress(blob)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("round trip mismatch")
	}
}

func TestCompressDecompressRoundTripShortInput(t *testing.T) {
	// Short, high-entropy input is the realistic case where lz4 reports
	// n == 0 and compress falls back to storing the payload raw
	// (formatRaw); the round trip must hold either way.
	src := []byte{0xde, 0xad, 0xbe, 0xef, 0x01, 0x02, 0x03}
	blob, err := compress(src)
	if err != nil {
		t.Fatalf("compress: %v", err)
	}
	got, err := decompress(blob)
	if err != nil {
		t.Fatalf("decompress: %v", err)
	}
	if !bytes.Equal(got, src) {
		t.Fatalf("round trip mismatch for short payload")
	}
}

func TestDecompressRejectsTruncatedBlob(t *testing.T) {
	if _, err := decompress([]byte{0, 1, 2}); err == nil {
		t.Fatalf("expected an error for a blob shorter than the header")
	}
}
