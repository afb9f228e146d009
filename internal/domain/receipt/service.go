package receipt

import (
	"fmt"
	"strings"

	"github.com/xenking/kiosk-pos/internal/domain/cart"
	"github.com/xenking/kiosk-pos/internal/domain/tax"
)

const (
	// DefaultTitle is the first line of every receipt unless overridden.
	DefaultTitle = "KIOSK RECEIPT"

	ruleWidth = 40

	subtotalLabel = "Subtotal:"
	taxLabel      = "Tax:"
	totalLabel    = "Total:"
)

// Option configures a Service.
type Option func(*Service)

// WithTitle overrides the receipt header line. Line breaks are replaced by
// spaces so the header stays a single line.
func WithTitle(title string) Option {
	return func(s *Service) {
		title = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(strings.TrimSpace(title))
		if title != "" {
			s.title = title
		}
	}
}

// Service renders carts into receipt lines using a tax calculator.
type Service struct {
	calc  tax.Calculator
	title string
}

// NewService creates a receipt Service.
func NewService(calc tax.Calculator, opts ...Option) *Service {
	s := &Service{calc: calc, title: DefaultTitle}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Summarize computes the receipt summary for c: subtotal and tax rounded to
// cents, total as their sum.
func (s *Service) Summarize(c *cart.Cart) Summary {
	exact := c.Subtotal()
	subtotal := exact.Round(2)
	taxAmount := s.calc.Tax(exact).Round(2)
	return Summary{
		Subtotal: subtotal,
		Tax:      taxAmount,
		Total:    subtotal.Add(taxAmount),
	}
}

// Render produces the receipt for c. The output depends only on the cart
// contents, the calculator and the title, so rendering the same cart twice
// yields identical lines.
func (s *Service) Render(c *cart.Cart) Receipt {
	cartLines := c.Items()
	rule := strings.Repeat("-", ruleWidth)

	lines := make([]string, 0, len(cartLines)+6)
	items := make([]LineItem, 0, len(cartLines))

	lines = append(lines, s.title, rule)
	for _, l := range cartLines {
		lines = append(lines, fmt.Sprintf("%s x%d @ %s = %s",
			l.Item.Name(), l.Quantity,
			l.Item.Price().StringFixed(2), l.Extension().StringFixed(2),
		))
		items = append(items, LineItem{
			Name:      l.Item.Name(),
			Category:  string(l.Item.Category()),
			UnitPrice: l.Item.Price(),
			Quantity:  l.Quantity,
		})
	}

	sum := s.Summarize(c)
	lines = append(lines, rule,
		subtotalLabel+" "+sum.Subtotal.StringFixed(2),
		taxLabel+" "+sum.Tax.StringFixed(2),
		totalLabel+" "+sum.Total.StringFixed(2),
	)

	return Receipt{Lines: lines, Items: items, Summary: sum}
}
