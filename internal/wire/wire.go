// Package wire converts back-office JSON records to domain values and back.
//
// The back-office is loose about types: relations arrive as objects, ids,
// numeric strings or plain names, and money as numbers or decimal strings.
// Decoders accept all of these and produce normalized domain values.
// Encoders always write the canonical shape.
package wire

import (
	"math"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/backoffice-insights/internal/domain/product"
)

// decodeMoney reads a number, a decimal string or null. Values that are not
// amounts, such as "abc" or true, read as 0; only a structural mismatch (an
// object or array) is an error.
func decodeMoney(d *jx.Decoder) (float64, error) {
	switch d.Next() {
	case jx.Null:
		return 0, d.Null()
	case jx.Bool:
		return 0, d.Skip()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		v, err := decimal.NewFromString(s)
		if err != nil {
			return 0, nil
		}
		return v.InexactFloat64(), nil
	case jx.Number:
		v, err := d.Float64()
		if err != nil {
			return 0, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, nil
		}
		return v, nil
	default:
		return 0, errors.Errorf("unexpected %s for amount", d.Next())
	}
}

// decodeInt reads an integer, a numeric string or null. Like decodeMoney,
// unparseable strings and booleans read as 0.
func decodeInt(d *jx.Decoder) (int64, error) {
	switch d.Next() {
	case jx.Null:
		return 0, d.Null()
	case jx.Bool:
		return 0, d.Skip()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return 0, err
		}
		return parseInt(s), nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return 0, err
		}
		return parseInt(string(n)), nil
	default:
		return 0, errors.Errorf("unexpected %s for integer", d.Next())
	}
}

// parseInt parses s as an integer. Quantities and stock are sometimes
// serialized as 3.0, so a float is truncated. Anything else is 0.
func parseInt(s string) int64 {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(f)
}

// decodeString reads a string, treating null as empty.
func decodeString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.Null:
		return "", d.Null()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return string(n), nil
	default:
		return d.Str()
	}
}

// decodeTime reads an RFC 3339 timestamp. Null and "" are the zero time.
func decodeTime(d *jx.Decoder) (time.Time, error) {
	s, err := decodeString(d)
	if err != nil || s == "" {
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "parse time %q", s)
	}
	return t, nil
}

// relation is a relation field in any of its accepted shapes.
type relation struct {
	ID    int64
	Name  string
	Email string
	Role  string
	// Object holds the raw object when the relation was embedded, so callers
	// can decode richer shapes from it.
	Object jx.Raw
}

func (r relation) isZero() bool {
	return r.ID == 0 && r.Name == "" && r.Email == "" && r.Role == ""
}

// decodeRelation reads an embedded object, an id, a numeric string or a
// name. Null yields the zero relation.
func decodeRelation(d *jx.Decoder) (relation, error) {
	var r relation
	switch d.Next() {
	case jx.Null:
		return r, d.Null()
	case jx.Number:
		id, err := decodeInt(d)
		r.ID = id
		return r, err
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return r, err
		}
		if id, err := strconv.ParseInt(s, 10, 64); err == nil {
			r.ID = id
		} else {
			r.Name = s
		}
		return r, nil
	case jx.Object:
		raw, err := d.Raw()
		if err != nil {
			return r, err
		}
		r.Object = append(jx.Raw(nil), raw...)
		err = jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				r.ID, err = decodeInt(d)
			case "name":
				r.Name, err = decodeString(d)
			case "email":
				r.Email, err = decodeString(d)
			case "role":
				r.Role, err = decodeString(d)
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrapf(err, "decode %q", key)
			}
			return nil
		})
		return r, err
	default:
		return r, errors.Errorf("unexpected %s for relation", d.Next())
	}
}

func (r relation) ref() product.Ref {
	return product.Ref{ID: r.ID, Name: r.Name}
}

func encodeRef(e *jx.Encoder, r product.Ref) {
	if r.IsZero() {
		e.Null()
		return
	}
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(r.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(r.Name) })
	})
}

func encodeMoney(e *jx.Encoder, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		e.Null()
		return
	}
	e.Float64(v)
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339Nano))
}
