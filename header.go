package record

import "golang.org/x/crypto/cryptobyte"

// encodeHeader builds the 5-byte wire header for a record.
func encodeHeader(ct ContentType, v ProtocolVersion, length int) []byte {
	var b cryptobyte.Builder
	b.AddUint8(uint8(ct))
	b.AddUint8(v.Major)
	b.AddUint8(v.Minor)
	b.AddUint16(uint16(length))
	// Builder only fails on a caller bug (AddValue after an error, or a
	// length that doesn't fit its declared width); none of those apply to
	// this fixed, pre-validated 5-byte header.
	return b.BytesOrPanic()
}

// decodeHeader parses the 5-byte wire header from the front of record.
func decodeHeader(record []byte) (ct ContentType, v ProtocolVersion, length int, rest []byte, err error) {
	s := cryptobyte.String(record)
	var ctByte, major, minor uint8
	var length16 uint16
	if !s.ReadUint8(&ctByte) || !s.ReadUint8(&major) || !s.ReadUint8(&minor) || !s.ReadUint16(&length16) {
		return 0, ProtocolVersion{}, 0, nil, newError(KindUnexpectedPacketLength, "header.decode", nil)
	}
	return ContentType(ctByte), ProtocolVersion{Major: major, Minor: minor}, int(length16), []byte(s), nil
}
