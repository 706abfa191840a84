package mirror

import (
	"encoding/binary"
	"fmt"

	"github.com/pierrec/lz4/v3"
)

// blob layout: 1-byte format flag, 4-byte little-endian uncompressed
// length, payload. The flag disambiguates a raw-stored payload from a
// compressed one explicitly, instead of inferring it from the blob's
// trailing byte and length.
const (
	formatLZ4 = 0
	formatRaw = 1
)

// compress prefixes an lz4 block with a format flag and the
// uncompressed length so decompress can size its destination buffer
// without guessing; batch payloads are small (one row) so a bare block
// codec, not the streaming frame format, is the right amount of
// machinery.
func compress(src []byte) ([]byte, error) {
	dst := make([]byte, 5+lz4.CompressBlockBound(len(src)))
	dst[0] = formatLZ4
	binary.LittleEndian.PutUint32(dst[1:5], uint32(len(src)))
	n, err := lz4.CompressBlock(src, dst[5:], nil)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// incompressible input: lz4 reports 0 and leaves dst untouched
		stored := make([]byte, 5+len(src))
		stored[0] = formatRaw
		binary.LittleEndian.PutUint32(stored[1:5], uint32(len(src)))
		copy(stored[5:], src)
		return stored, nil
	}
	return dst[:5+n], nil
}

func decompress(blob []byte) ([]byte, error) {
	if len(blob) < 5 {
		return nil, fmt.Errorf("mirror: truncated row blob")
	}
	format := blob[0]
	origLen := binary.LittleEndian.Uint32(blob[1:5])
	if format == formatRaw {
		return blob[5 : 5+origLen], nil
	}
	dst := make([]byte, origLen)
	n, err := lz4.UncompressBlock(blob[5:], dst)
	if err != nil {
		return nil, err
	}
	return dst[:n], nil
}
