// Package charset maps the IANA MIBenum values carried in MMS
// encoded-string-value headers onto Go text encodings, so decoded
// subjects, filenames and text parts always come out as UTF-8.
package charset

import (
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// UTF8MIBEnum is the IANA MIBenum for UTF-8; encoded-string-values
// tagged with it are already UTF-8 and need no conversion.
const UTF8MIBEnum = 106

// USASCIIMIBEnum is the IANA MIBenum for US-ASCII, a subset of UTF-8.
const USASCIIMIBEnum = 3

// byMIBEnum covers the charsets actually seen in MMS traffic in the
// field (ground: mms_codec.c's charset_assignments table). MIBs not
// listed here are passed through unchanged by Decode.
var byMIBEnum = map[int]encoding.Encoding{
	3:    encoding.Nop, // US-ASCII
	4:    charmap.ISO8859_1,
	5:    charmap.ISO8859_2,
	6:    charmap.ISO8859_3,
	7:    charmap.ISO8859_4,
	8:    charmap.ISO8859_5,
	9:    charmap.ISO8859_6,
	10:   charmap.ISO8859_7,
	11:   charmap.ISO8859_8,
	12:   charmap.ISO8859_9,
	13:   charmap.ISO8859_10,
	17:   japanese.ShiftJIS,
	18:   japanese.EUCJP,
	36:   korean.EUCKR, // CP949 is a superset; closest available mapping
	38:   korean.EUCKR,
	106:  encoding.Nop, // UTF-8
	109:  charmap.ISO8859_13,
	110:  charmap.ISO8859_14,
	111:  charmap.ISO8859_15,
	112:  charmap.ISO8859_16,
	2025: simplifiedchinese.GBK, // GB2312 (EUC-CN) is a subset of GBK
	2026: traditionalchinese.Big5,
	2027: charmap.Macintosh,
	2084: charmap.KOI8R,
	2250: charmap.Windows1250,
	2251: charmap.Windows1251,
	2252: charmap.Windows1252,
	2253: charmap.Windows1253,
	2254: charmap.Windows1254,
	2255: charmap.Windows1255,
	2256: charmap.Windows1256,
	2257: charmap.Windows1257,
	2258: charmap.Windows1258,
}

// Decode converts raw bytes tagged with mibEnum into a UTF-8 string.
// Unknown MIB enums are passed through verbatim, per the codec's
// tolerant-on-input contract.
func Decode(mibEnum int, raw []byte) (string, error) {
	enc, ok := byMIBEnum[mibEnum]
	if !ok {
		return string(raw), nil
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("charset: decode mib %d: %w", mibEnum, err)
	}
	return string(out), nil
}

// Supported reports whether mibEnum has a known mapping.
func Supported(mibEnum int) bool {
	_, ok := byMIBEnum[mibEnum]
	return ok
}
