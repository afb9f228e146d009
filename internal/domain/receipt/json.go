package receipt

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// WriteItems encodes items as a JSON array. Unit prices are written as
// strings to keep their exact decimal form.
func WriteItems(e *jx.Encoder, items []LineItem) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("category")
		e.Str(it.Category)
		e.FieldStart("unit_price")
		e.Str(it.UnitPrice.String())
		e.FieldStart("quantity")
		e.Int(it.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// ReadItems decodes a JSON array written by WriteItems. Unknown fields are
// skipped.
func ReadItems(d *jx.Decoder) ([]LineItem, error) {
	var items []LineItem
	err := d.Arr(func(d *jx.Decoder) error {
		var it LineItem
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "name":
				it.Name, err = d.Str()
			case "category":
				it.Category, err = d.Str()
			case "unit_price":
				it.UnitPrice, err = readDecimal(d)
			case "quantity":
				it.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrapf(err, "field %q", key)
			}
			return nil
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode receipt items")
	}
	return items, nil
}

// WriteSummary encodes s as an object with string amounts.
func WriteSummary(e *jx.Encoder, s Summary) {
	e.ObjStart()
	e.FieldStart("subtotal")
	e.Str(s.Subtotal.StringFixed(2))
	e.FieldStart("tax")
	e.Str(s.Tax.StringFixed(2))
	e.FieldStart("total")
	e.Str(s.Total.StringFixed(2))
	e.ObjEnd()
}

// ReadSummary decodes an object written by WriteSummary.
func ReadSummary(d *jx.Decoder) (Summary, error) {
	var s Summary
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "subtotal":
			s.Subtotal, err = readDecimal(d)
		case "tax":
			s.Tax, err = readDecimal(d)
		case "total":
			s.Total, err = readDecimal(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "decode receipt summary")
	}
	return s, nil
}

func readDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := d.Str()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}
