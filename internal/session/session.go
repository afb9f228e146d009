// Package session runs the line-oriented kiosk terminal: browse the menu,
// edit the single in-progress cart and check out.
package session

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/xenking/kiosk-pos/internal/domain/cart"
	"github.com/xenking/kiosk-pos/internal/domain/errs"
	"github.com/xenking/kiosk-pos/internal/domain/menu"
	"github.com/xenking/kiosk-pos/internal/domain/order"
	"github.com/xenking/kiosk-pos/internal/domain/receipt"
	"github.com/xenking/kiosk-pos/pkg/health"
)

const helpText = `Commands:
  menu [category]        list items, optionally one category
  add <item> [qty]       add an item by name or menu number
  remove <item>          remove an item from the cart
  clear                  empty the cart
  cart                   show the cart and totals
  checkout <customer>    save the receipt and start a new cart
  status                 show health checks
  help                   show this help
  quit                   leave the kiosk`

// Checkouter completes an order for the cart.
type Checkouter interface {
	Checkout(ctx context.Context, c *cart.Cart, customerName string) (*order.Result, error)
}

// Summarizer computes the totals shown for the cart.
type Summarizer interface {
	Summarize(c *cart.Cart) receipt.Summary
}

// StatusReporter exposes health check results.
type StatusReporter interface {
	Report(kind health.Kind) []health.Status
}

// Option configures a Session.
type Option func(*Session)

func WithLogger(lg *zap.Logger) Option {
	return func(s *Session) { s.lg = lg }
}

// WithStatus enables the status command.
func WithStatus(r StatusReporter) Option {
	return func(s *Session) { s.status = r }
}

func WithPrompt(prompt string) Option {
	return func(s *Session) { s.prompt = prompt }
}

// Session owns the one in-progress cart of the process.
type Session struct {
	catalog  menu.Repository
	checkout Checkouter
	summary  Summarizer
	status   StatusReporter

	cart   *cart.Cart
	lg     *zap.Logger
	prompt string
}

// New creates a Session with an empty cart.
func New(catalog menu.Repository, checkout Checkouter, summary Summarizer, opts ...Option) *Session {
	s := &Session{
		catalog:  catalog,
		checkout: checkout,
		summary:  summary,
		cart:     cart.New(),
		lg:       zap.NewNop(),
		prompt:   "> ",
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Cart returns the in-progress cart.
func (s *Session) Cart() *cart.Cart {
	return s.cart
}

// Run reads commands from in until quit, end of input or ctx cancellation.
// Command failures are printed and do not end the session; write failures
// on out do.
func (s *Session) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	p := &printer{w: out}
	p.println("Welcome! Type help for commands.")
	for {
		p.print(s.prompt)
		if p.err != nil {
			return errors.Wrap(p.err, "write output")
		}

		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-lines:
		}
		if !ok {
			p.println("")
			select {
			case err := <-readErr:
				if err != nil {
					return errors.Wrap(err, "read input")
				}
			default:
			}
			if p.err != nil {
				return errors.Wrap(p.err, "write output")
			}
			return nil
		}

		quit := s.exec(ctx, p, line)
		if p.err != nil {
			return errors.Wrap(p.err, "write output")
		}
		if quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the session should end.
func (s *Session) exec(ctx context.Context, p *printer, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	s.lg.Debug("Command", zap.String("cmd", cmd), zap.Strings("args", args))

	var err error
	switch cmd {
	case "help", "?":
		p.println(helpText)
	case "menu", "ls":
		err = s.showMenu(ctx, p, args)
	case "add":
		err = s.add(ctx, p, args)
	case "remove", "rm":
		err = s.remove(ctx, p, args)
	case "clear":
		s.cart.Clear()
		p.println("Cart cleared.")
	case "cart":
		s.showCart(p)
	case "checkout":
		err = s.doCheckout(ctx, p, args)
	case "status":
		s.showStatus(p)
	case "quit", "exit", "q":
		p.println("Bye.")
		return true
	default:
		p.printf("Unknown command %q. Type help for commands.\n", cmd)
	}

	if err != nil {
		s.lg.Warn("Command failed", zap.String("cmd", cmd), zap.Error(err))
		p.printf("Error: %v\n", err)
		if errors.Is(err, errs.ErrPersistence) {
			p.println("The cart was kept; try checkout again.")
		}
	}
	return false
}

func (s *Session) showMenu(ctx context.Context, p *printer, args []string) error {
	all, err := s.catalog.All(ctx)
	if err != nil {
		return errors.Wrap(err, "load menu")
	}

	items := all
	if len(args) > 0 {
		c, err := menu.ParseCategory(strings.Join(args, " "))
		if err != nil {
			return err
		}
		if items, err = s.catalog.ByCategory(ctx, c); err != nil {
			return errors.Wrapf(err, "load %s items", c)
		}
	}
	if len(items) == 0 {
		p.println("No items.")
		return nil
	}

	number := make(map[string]int, len(all))
	for i, item := range all {
		number[item.Name()] = i + 1
	}
	for _, item := range items {
		p.printf("%3d. %-26s %7s  %s\n", number[item.Name()], item.Name(), item.Price().StringFixed(2), item.Category())
	}
	return nil
}

func (s *Session) add(ctx context.Context, p *printer, args []string) error {
	qty := 1
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			qty = n
			args = args[:len(args)-1]
		}
	}
	item, err := s.resolve(ctx, args)
	if err != nil {
		return err
	}
	if err := s.cart.Add(item, qty); err != nil {
		return err
	}
	p.printf("Added %d x %s.\n", qty, item.Name())
	return nil
}

func (s *Session) remove(ctx context.Context, p *printer, args []string) error {
	item, err := s.resolve(ctx, args)
	if err != nil {
		return err
	}
	if s.cart.Quantity(item.Name()) == 0 {
		p.printf("%s is not in the cart.\n", item.Name())
		return nil
	}
	s.cart.Remove(item.Name())
	p.printf("Removed %s.\n", item.Name())
	return nil
}

// resolve finds a catalog item by menu number or case-insensitive name.
func (s *Session) resolve(ctx context.Context, args []string) (menu.Item, error) {
	query := strings.Join(args, " ")
	if query == "" {
		return menu.Item{}, errs.Invalid("item", "name or number is required")
	}
	all, err := s.catalog.All(ctx)
	if err != nil {
		return menu.Item{}, errors.Wrap(err, "load menu")
	}
	if n, err := strconv.Atoi(query); err == nil {
		if n < 1 || n > len(all) {
			return menu.Item{}, errs.Invalid("item", fmt.Sprintf("no menu number %d", n))
		}
		return all[n-1], nil
	}
	for _, item := range all {
		if strings.EqualFold(item.Name(), query) {
			return item, nil
		}
	}
	return menu.Item{}, errs.Invalid("item", fmt.Sprintf("%q is not on the menu", query))
}

func (s *Session) showCart(p *printer) {
	if s.cart.IsEmpty() {
		p.println("Cart is empty.")
		return
	}
	for _, l := range s.cart.Items() {
		p.printf("  %-26s x%-3d %8s\n", l.Item.Name(), l.Quantity, l.Extension().StringFixed(2))
	}
	sum := s.summary.Summarize(s.cart)
	p.printf("  %-31s %8s\n", "Subtotal", sum.Subtotal.StringFixed(2))
	p.printf("  %-31s %8s\n", "Tax", sum.Tax.StringFixed(2))
	p.printf("  %-31s %8s\n", "Total", sum.Total.StringFixed(2))
}

func (s *Session) doCheckout(ctx context.Context, p *printer, args []string) error {
	result, err := s.checkout.Checkout(ctx, s.cart, strings.Join(args, " "))
	if err != nil {
		return err
	}
	for _, line := range result.Lines {
		p.println(line)
	}
	p.printf("Receipt saved to %s\n", result.ReceiptPath)
	if result.ReceiptID > 0 {
		p.printf("Receipt record #%d\n", result.ReceiptID)
	}
	p.printf("Thank you, %s!\n", result.Order.CustomerName)
	return nil
}

func (s *Session) showStatus(p *printer) {
	if s.status == nil {
		p.println("No health checks configured.")
		return
	}
	statuses := s.status.Report("")
	if len(statuses) == 0 {
		p.println("No health checks configured.")
		return
	}
	for _, st := range statuses {
		state := "ok"
		switch {
		case !st.Healthy && st.Err != nil:
			state = "FAIL: " + st.Err.Error()
		case !st.Healthy:
			state = "FAIL"
		case st.Err != nil:
			state = "ok (last run: " + st.Err.Error() + ")"
		}
		p.printf("  %-12s %-10s %s\n", st.Name, st.Kind, state)
	}
}

// printer keeps the first write error so output calls can be chained.
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...any) {
	if p.err == nil {
		_, p.err = fmt.Fprintf(p.w, format, args...)
	}
}

func (p *printer) print(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *printer) println(s string) {
	p.print(s + "\n")
}
