package probe

import "errors"

// productInfo is the subset of PGN 126996 (Product Information) the probe
// needs: just the ModelID string. Scoped down from the teacher's
// addressmapper.ProductInfo/PGN126996ToProductInfo, which decodes every
// field of the 134-byte payload; generic PGN field decoding is out of
// scope here, so only the one field the probe's YDEN check reads is
// extracted.
type productInfo struct {
	ModelID string
}

// modelIDByteOffset/modelIDByteLength mirror the teacher's
// DecodeStringFix(32, 256) call: the ModelID field starts at byte 4 and is
// 32 bytes (256 bits) long.
const (
	modelIDByteOffset = 4
	modelIDByteLength = 32
)

var errPayloadTooShort = errors.New("probe: product information payload too short")

func decodeProductInfo(payload []byte) (productInfo, error) {
	end := modelIDByteOffset + modelIDByteLength
	if len(payload) < end {
		return productInfo{}, errPayloadTooShort
	}
	return productInfo{ModelID: decodeStringFix(payload[modelIDByteOffset:end])}, nil
}

// decodeStringFix trims a fixed-width NMEA 2000 string field at its first
// terminator byte (0xFF, 0x00, or '@'), grounded on the teacher's
// RawData.DecodeStringFix.
func decodeStringFix(raw []byte) string {
	n := 0
	for n < len(raw) {
		b := raw[n]
		if b == 0xFF || b == 0x00 || b == '@' {
			break
		}
		n++
	}
	return string(raw[:n])
}
