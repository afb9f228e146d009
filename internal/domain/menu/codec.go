package menu

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// DecodeJSON parses a JSON array of {"name","price","category"} objects into
// validated items. Prices are decimal strings.
func DecodeJSON(data []byte) ([]Item, error) {
	var items []Item
	err := jx.DecodeBytes(data).Arr(func(d *jx.Decoder) error {
		var name, price, category string
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "name":
				name, err = d.Str()
			case "price":
				price, err = d.Str()
			case "category":
				category, err = d.Str()
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

		p, err := decimal.NewFromString(price)
		if err != nil {
			return errors.Wrapf(err, "item %d price", len(items)+1)
		}
		c, err := ParseCategory(category)
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items)+1)
		}
		item, err := NewItem(name, p, c)
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items)+1)
		}
		items = append(items, item)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode menu")
	}
	return items, nil
}

// EncodeJSON writes items in the format read by DecodeJSON.
func EncodeJSON(items []Item) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, item := range items {
		e.ObjStart()
		e.FieldStart("name")
		e.Str(item.name)
		e.FieldStart("price")
		e.Str(item.price.String())
		e.FieldStart("category")
		e.Str(string(item.category))
		e.ObjEnd()
	}
	e.ArrEnd()
	return e.Bytes()
}
