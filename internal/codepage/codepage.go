// internal/codepage/codepage.go
//
// ANSI code page support for the message marshaller. The narrow side of every
// conversion is expressed in one of these code pages; the wide side is always
// UTF-16 code units.
package codepage

import (
	"errors"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// ID is a Windows code page identifier.
type ID uint32

const (
	OEMUnitedStates ID = 437
	OEMLatin1       ID = 850
	OEMLatin2       ID = 852
	OEMCyrillic     ID = 866
	Thai            ID = 874
	ShiftJIS        ID = 932
	GBK             ID = 936
	Korean          ID = 949
	Big5            ID = 950
	CentralEurope   ID = 1250
	Cyrillic        ID = 1251
	Latin1          ID = 1252
	Greek           ID = 1253
	Turkish         ID = 1254
	Hebrew          ID = 1255
	Arabic          ID = 1256
	Baltic          ID = 1257
	Vietnamese      ID = 1258
	KOI8R           ID = 20866
	ISO8859_1       ID = 28591
)

var ErrUnknownCodePage = errors.New("unknown code page")

var encodings = map[ID]encoding.Encoding{
	OEMUnitedStates: charmap.CodePage437,
	OEMLatin1:       charmap.CodePage850,
	OEMLatin2:       charmap.CodePage852,
	OEMCyrillic:     charmap.CodePage866,
	Thai:            charmap.Windows874,
	ShiftJIS:        japanese.ShiftJIS,
	GBK:             simplifiedchinese.GBK,
	Korean:          korean.EUCKR,
	Big5:            traditionalchinese.Big5,
	CentralEurope:   charmap.Windows1250,
	Cyrillic:        charmap.Windows1251,
	Latin1:          charmap.Windows1252,
	Greek:           charmap.Windows1253,
	Turkish:         charmap.Windows1254,
	Hebrew:          charmap.Windows1255,
	Arabic:          charmap.Windows1256,
	Baltic:          charmap.Windows1257,
	Vietnamese:      charmap.Windows1258,
	KOI8R:           charmap.KOI8R,
	ISO8859_1:       charmap.ISO8859_1,
}

// Lead byte ranges of the double-byte code pages.
var leadBytes = map[ID][][2]byte{
	ShiftJIS: {{0x81, 0x9F}, {0xE0, 0xFC}},
	GBK:      {{0x81, 0xFE}},
	Korean:   {{0x81, 0xFE}},
	Big5:     {{0x81, 0xFE}},
}

// Lookup returns the encoding for a code page id.
func Lookup(cp ID) (encoding.Encoding, error) {
	enc, ok := encodings[cp]
	if !ok {
		return nil, ErrUnknownCodePage
	}
	return enc, nil
}

// Known reports whether the code page id is supported.
func Known(cp ID) bool {
	_, ok := encodings[cp]
	return ok
}

// IsLeadByte reports whether b opens a two-byte sequence under cp.
func IsLeadByte(cp ID, b byte) bool {
	for _, r := range leadBytes[cp] {
		if b >= r[0] && b <= r[1] {
			return true
		}
	}
	return false
}

// ToWide converts narrow text to UTF-16 code units. Undecodable bytes become
// the Unicode replacement character rather than failing the conversion.
func ToWide(cp ID, b []byte) ([]uint16, error) {
	enc, err := Lookup(cp)
	if err != nil {
		return nil, err
	}
	u8, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return nil, err
	}
	return utf16.Encode([]rune(string(u8))), nil
}

// FromWide converts UTF-16 code units to narrow text. Unmappable characters
// are replaced with the encoding's substitute byte, matching the silent
// fallback the callers expect.
func FromWide(cp ID, u []uint16) ([]byte, error) {
	enc, err := Lookup(cp)
	if err != nil {
		return nil, err
	}
	e := encoding.ReplaceUnsupported(enc.NewEncoder())
	return e.Bytes([]byte(string(utf16.Decode(u))))
}

// WideLen returns the number of UTF-16 units narrow text converts to.
func WideLen(cp ID, b []byte) int {
	u, err := ToWide(cp, b)
	if err != nil {
		return 0
	}
	return len(u)
}

// AnsiLen returns the number of bytes wide text converts to.
func AnsiLen(cp ID, u []uint16) int {
	b, err := FromWide(cp, u)
	if err != nil {
		return 0
	}
	return len(b)
}

// EncodeChar converts a single UTF-16 unit to its narrow form: one byte, or
// two for a double-byte character. Unmappable input yields the substitute
// byte.
func EncodeChar(cp ID, wch uint16) []byte {
	b, err := FromWide(cp, []uint16{wch})
	if err != nil || len(b) == 0 {
		return []byte{'?'}
	}
	if len(b) > 2 {
		b = b[:2]
	}
	return b
}

// DecodeChar converts one narrow character (one or two bytes) to a UTF-16
// unit.
func DecodeChar(cp ID, b []byte) uint16 {
	u, err := ToWide(cp, b)
	if err != nil || len(u) == 0 {
		return 0
	}
	return u[0]
}
