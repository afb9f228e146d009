package receipt

import (
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/kiosk-pos/internal/domain/errs"
)

// ErrMalformedTrailer is returned by ParseTrailer when the last three lines
// do not carry subtotal, tax and total amounts.
var ErrMalformedTrailer = errors.Wrap(errs.ErrInvalidInput, "malformed receipt trailer")

// TrailerLen is the number of summary lines closing every rendered receipt.
const TrailerLen = 3

// TrailerText returns the amount text of the last three lines: every
// character except ASCII digits and '.' is removed.
func TrailerText(lines []string) (subtotal, tax, total string, err error) {
	if len(lines) < TrailerLen {
		return "", "", "", errors.Wrapf(ErrMalformedTrailer, "want at least %d lines, got %d", TrailerLen, len(lines))
	}
	tail := lines[len(lines)-TrailerLen:]
	return keepAmountChars(tail[0]), keepAmountChars(tail[1]), keepAmountChars(tail[2]), nil
}

// ParseTrailer recovers the Summary from receipt text. It is the inverse of
// the trailer written by Service.Render and is meant for receipts that only
// exist as text, such as files in the receipt archive.
func ParseTrailer(lines []string) (Summary, error) {
	subtotal, tax, total, err := TrailerText(lines)
	if err != nil {
		return Summary{}, err
	}

	values := make([]decimal.Decimal, TrailerLen)
	for i, text := range []string{subtotal, tax, total} {
		v, err := decimal.NewFromString(text)
		if err != nil {
			return Summary{}, errors.Wrapf(ErrMalformedTrailer, "line %d %q", len(lines)-TrailerLen+i+1, text)
		}
		values[i] = v
	}

	return Summary{Subtotal: values[0], Tax: values[1], Total: values[2]}, nil
}

func keepAmountChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; (c >= '0' && c <= '9') || c == '.' {
			b.WriteByte(c)
		}
	}
	return b.String()
}
