package receipt

import "strings"

// Receipt is a formatted receipt ready for the printer.
type Receipt struct {
	Lines []string
	// Bold holds indexes into Lines that are printed emphasised.
	Bold []int
}

// Text joins the receipt lines.
func (r Receipt) Text() string {
	return strings.Join(r.Lines, "\n")
}

type builder struct {
	width int
	lines []string
	bold  []int
}

func (b *builder) add(lines ...string) {
	b.lines = append(b.lines, lines...)
}

func (b *builder) addBold(line string) {
	b.bold = append(b.bold, len(b.lines))
	b.lines = append(b.lines, line)
}

func (b *builder) rule(ch string) {
	b.add(strings.Repeat(ch, b.width))
}

func (b *builder) blank() {
	b.add("")
}

// wrapped adds text wrapped to the receipt width, each line prefixed.
func (b *builder) wrapped(prefix, text string) {
	for _, line := range WrapLines(text, b.width-runeLen(prefix)) {
		b.add(prefix + line)
	}
}

func (b *builder) receipt() Receipt {
	return Receipt{Lines: b.lines, Bold: b.bold}
}
