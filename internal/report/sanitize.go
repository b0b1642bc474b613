package report

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// substitute is the byte the charmap encoder writes for unsupported runes.
const substitute = "\x1a"

// sanitize converts s to Windows-1252, the code page of the PDF core fonts.
// Runes outside the code page become '?'.
func sanitize(s string) string {
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, _, err := transform.String(enc, s)
	if err != nil {
		return strings.Map(func(r rune) rune {
			if r < 0x80 {
				return r
			}
			return '?'
		}, s)
	}
	return strings.ReplaceAll(out, substitute, "?")
}
