package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/backoffice-insights/internal/domain/product"
)

// DecodeProduct reads a single product object.
func DecodeProduct(d *jx.Decoder) (product.Product, error) {
	var p product.Product
	var categoryID, brandID int64
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			p.ID, err = decodeInt(d)
		case "name":
			p.Name, err = decodeString(d)
		case "sku":
			p.SKU, err = decodeString(d)
		case "price":
			p.Price, err = decodeMoney(d)
		case "stock":
			var v int64
			v, err = decodeInt(d)
			p.Stock = int(v)
		case "status":
			p.Status, err = decodeString(d)
		case "category":
			var r relation
			r, err = decodeRelation(d)
			p.Category = r.ref()
		case "brand":
			var r relation
			r, err = decodeRelation(d)
			p.Brand = r.ref()
		case "categoryId":
			categoryID, err = decodeInt(d)
		case "brandId":
			brandID, err = decodeInt(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	if err != nil {
		return product.Product{}, err
	}
	if p.Category.IsZero() {
		p.Category.ID = categoryID
	}
	if p.Brand.IsZero() {
		p.Brand.ID = brandID
	}
	return p, nil
}

// DecodeProducts reads an array of products.
func DecodeProducts(d *jx.Decoder) ([]product.Product, error) {
	products := make([]product.Product, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		p, err := DecodeProduct(d)
		if err != nil {
			return errors.Wrapf(err, "product %d", len(products))
		}
		products = append(products, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return products, nil
}

// EncodeProduct writes p as a product object.
func EncodeProduct(e *jx.Encoder, p product.Product) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(p.ID)
	e.FieldStart("name")
	e.Str(p.Name)
	if p.SKU != "" {
		e.FieldStart("sku")
		e.Str(p.SKU)
	}
	e.FieldStart("price")
	encodeMoney(e, p.Price)
	e.FieldStart("stock")
	e.Int(p.Stock)
	if p.Status != "" {
		e.FieldStart("status")
		e.Str(p.Status)
	}
	e.FieldStart("category")
	encodeRef(e, p.Category)
	e.FieldStart("brand")
	encodeRef(e, p.Brand)
	e.ObjEnd()
}
