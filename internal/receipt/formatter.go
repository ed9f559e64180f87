package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/printerd/internal/domain/model"
)

const (
	DefaultWidth = 42
	DefaultTitle = "BESTELLUNG"

	currency = "EUR"
	footer   = "Vielen Dank für Ihre Bestellung!"
)

// Formatter turns orders into fixed-width receipts. It is pure and safe for
// concurrent use.
type Formatter struct {
	Width    int
	Title    string
	Location *time.Location
}

// NewFormatter builds a formatter, falling back to defaults for zero values.
func NewFormatter(width int, title string, loc *time.Location) *Formatter {
	if width <= 0 {
		width = DefaultWidth
	}
	if title == "" {
		title = DefaultTitle
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{Width: width, Title: title, Location: loc}
}

// Format lays out the receipt for order.
func (f *Formatter) Format(order model.Order) Receipt {
	b := &builder{width: f.width()}

	b.addBold(center(f.Title, b.width))
	b.rule("=")
	b.add("Bestellung: " + shortID(order.ID))
	b.add("Datum: " + FormatDate(order.CreatedAt, f.Location))
	b.rule("-")

	if order.CustomerName != "" {
		b.wrapped("", "Kunde: "+order.CustomerName)
	}
	if order.CustomerPhone != "" {
		b.add("Telefon: " + order.CustomerPhone)
	}
	if order.DeliveryAddress != "" {
		b.add("Lieferadresse:")
		b.add(WrapLines(order.DeliveryAddress, b.width-addressMargin)...)
	}
	b.rule("-")

	for _, item := range order.Items {
		f.addItem(b, item)
	}

	if notes := strings.TrimSpace(order.Notes); notes != "" {
		b.rule("-")
		b.add("Anmerkungen:")
		b.wrapped("", notes)
	}

	b.rule("=")
	total := price(order.TotalAmount)
	if line, ok := justify("GESAMT", total, b.width); ok {
		b.addBold(line)
	} else {
		b.addBold("GESAMT")
		b.addBold(alignRight(total, b.width))
	}
	b.rule("=")
	b.blank()
	b.add(center(footer, b.width))

	return b.receipt()
}

func (f *Formatter) addItem(b *builder, item model.OrderItem) {
	left := fmt.Sprintf("%dx Nr.%d %s", item.Quantity, item.MenuItemNumber, item.Name)
	right := price(item.TotalPrice)
	if line, ok := justify(left, right, b.width); ok {
		b.add(line)
	} else {
		b.wrapped("", left)
		b.add(alignRight(right, b.width))
	}

	const indent = "  "
	if item.SelectedSize != "" {
		b.wrapped(indent, "Größe: "+item.SelectedSize)
	}
	if item.SelectedPastaType != "" {
		b.wrapped(indent, "Nudeln: "+item.SelectedPastaType)
	}
	if item.SelectedSauce != "" {
		b.wrapped(indent, "Soße: "+item.SelectedSauce)
	}
	if item.SelectedSideDish != "" {
		b.wrapped(indent, "Beilage: "+item.SelectedSideDish)
	}
	if len(item.SelectedIngredients) > 0 {
		b.wrapped(indent, "Zutaten: "+strings.Join(item.SelectedIngredients, ", "))
	}
	if len(item.SelectedExtras) > 0 {
		b.wrapped(indent, prefixed("+ ", item.SelectedExtras))
	}
	if len(item.SelectedExclusions) > 0 {
		b.wrapped(indent, prefixed("ohne ", item.SelectedExclusions))
	}
}

func (f *Formatter) width() int {
	if f.Width <= 0 {
		return DefaultWidth
	}
	return f.Width
}

// addressMargin keeps the delivery address clear of the right edge.
const addressMargin = 2

func price(amount decimal.Decimal) string {
	return FormatPrice(amount) + " " + currency
}

func prefixed(prefix string, values []string) string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, prefix+v)
	}
	return strings.Join(out, ", ")
}

func shortID(id string) string {
	r := []rune(id)
	if len(r) > 8 {
		r = r[:8]
	}
	return strings.ToUpper(string(r))
}
