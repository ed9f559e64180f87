package printer

import (
	"bytes"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// ESC/POS control bytes.
const (
	esc byte = 0x1B
	gs  byte = 0x1D
	lf  byte = 0x0A
)

// codePagePC858 selects the Western European page with the euro sign.
const codePagePC858 byte = 19

var (
	cmdInit     = []byte{esc, '@'}
	cmdCodePage = []byte{esc, 't', codePagePC858}
	cmdBoldOn   = []byte{esc, 'E', 1}
	cmdBoldOff  = []byte{esc, 'E', 0}
	cmdCut      = []byte{gs, 'V', 66, 0}
)

const feedLines = 4

// Encode renders receipt lines as an ESC/POS byte stream in code page 858.
// Characters the code page cannot represent are replaced.
func Encode(lines []string, bold []int) ([]byte, error) {
	boldSet := make(map[int]struct{}, len(bold))
	for _, i := range bold {
		boldSet[i] = struct{}{}
	}

	enc := encoding.ReplaceUnsupported(charmap.CodePage858.NewEncoder())

	var buf bytes.Buffer
	buf.Write(cmdInit)
	buf.Write(cmdCodePage)
	for i, line := range lines {
		encoded, err := enc.String(line)
		if err != nil {
			return nil, fmt.Errorf("encode line %d: %w", i, err)
		}
		_, isBold := boldSet[i]
		if isBold {
			buf.Write(cmdBoldOn)
		}
		buf.WriteString(encoded)
		if isBold {
			buf.Write(cmdBoldOff)
		}
		buf.WriteByte(lf)
	}
	buf.Write(bytes.Repeat([]byte{lf}, feedLines))
	buf.Write(cmdCut)
	return buf.Bytes(), nil
}
