package manifest

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Encode serializes a Manifest back to its binary form.
// Encode(Decode(b)) == b for every manifest this package accepts; the
// round-trip property is what the decoder's tests and the fixture
// generator rely on.
func Encode(m *Manifest) ([]byte, error) {
	if m.Version != VersionExplicit && m.Version != VersionScrambled {
		return nil, &ParseError{Page: -1, Reason: fmt.Sprintf("version %d", m.Version), Err: ErrUnsupportedVersion}
	}
	for i := range m.Pages {
		if err := m.Pages[i].validate(); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	buf.Write(Magic[:])

	var flags uint16
	if m.HasChecksums {
		flags |= flagChecksums
	}
	writeUint16(&buf, m.Version)
	writeUint16(&buf, flags)
	writeUint32(&buf, uint32(len(m.Pages)))

	for i := range m.Pages {
		if err := encodePage(&buf, &m.Pages[i], m.HasChecksums); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func encodePage(buf *bytes.Buffer, p *PageSpec, checksums bool) error {
	writeUint32(buf, uint32(p.Index))
	writeUint32(buf, uint32(p.Width))
	writeUint32(buf, uint32(p.Height))
	writeUint16(buf, uint16(p.Rows))
	writeUint16(buf, uint16(p.Cols))
	writeUint16(buf, uint16(p.Overlap))
	buf.WriteByte(byte(p.Cipher))
	buf.WriteByte(p.KeyScheme)
	writeUint64(buf, p.ScrambleSeed)
	writeUint32(buf, uint32(len(p.Tiles)))

	for i := range p.Tiles {
		if err := encodeTile(buf, p.Index, &p.Tiles[i], checksums); err != nil {
			return err
		}
	}
	return nil
}

func encodeTile(buf *bytes.Buffer, page int, t *TileSpec, checksums bool) error {
	if len(t.Salt) > maxSaltLen {
		return &ParseError{Page: page, Reason: fmt.Sprintf("salt length %d exceeds %d", len(t.Salt), maxSaltLen)}
	}
	if len(t.Locator) == 0 || len(t.Locator) > maxLocatorLen {
		return &ParseError{Page: page, Reason: fmt.Sprintf("locator length %d out of range", len(t.Locator))}
	}
	if checksums && len(t.Checksum) != checksumSize {
		return &ParseError{Page: page, Reason: fmt.Sprintf("checksum length %d, want %d", len(t.Checksum), checksumSize)}
	}

	writeUint16(buf, uint16(t.Row))
	writeUint16(buf, uint16(t.Col))
	buf.WriteByte(byte(len(t.Salt)))
	buf.Write(t.Salt)
	writeUint32(buf, t.Index)
	writeUint32(buf, uint32(t.Size))
	if checksums {
		buf.Write(t.Checksum)
	}
	writeUint16(buf, uint16(len(t.Locator)))
	buf.WriteString(t.Locator)
	return nil
}

func writeUint16(buf *bytes.Buffer, v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	buf.Write(b[:])
}

func writeUint32(buf *bytes.Buffer, v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	buf.Write(b[:])
}

func writeUint64(buf *bytes.Buffer, v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	buf.Write(b[:])
}
