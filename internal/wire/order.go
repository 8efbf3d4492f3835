package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
)

// DecodeOrder reads a single order object.
//
// customer and seller may be embedded objects, ids or names; customerId and
// sellerId are used when the embedded relation is missing. orderDate stands in
// for a missing createdAt.
func DecodeOrder(d *jx.Decoder) (order.Order, error) {
	var (
		o                    order.Order
		customer, seller     relation
		customerID, sellerID int64
		orderDate            time.Time
	)
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = decodeInt(d)
		case "orderNumber":
			o.OrderNumber, err = decodeString(d)
		case "customer":
			customer, err = decodeRelation(d)
		case "customerId":
			customerID, err = decodeInt(d)
		case "seller":
			seller, err = decodeRelation(d)
		case "sellerId":
			sellerID, err = decodeInt(d)
		case "items":
			o.Items, err = DecodeItems(d)
		case "total":
			o.Total, err = decodeMoney(d)
		case "status":
			var s string
			s, err = decodeString(d)
			o.Status = order.Status(s)
		case "paymentStatus":
			var s string
			s, err = decodeString(d)
			o.PaymentStatus = order.PaymentStatus(s)
		case "paymentMethod":
			var s string
			s, err = decodeString(d)
			o.PaymentMethod = order.PaymentMethod(s)
		case "createdAt":
			o.CreatedAt, err = decodeTime(d)
		case "orderDate":
			orderDate, err = decodeTime(d)
		case "updatedAt":
			o.UpdatedAt, err = decodeTime(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	if err != nil {
		return order.Order{}, err
	}

	if customer.isZero() {
		customer.ID = customerID
	}
	if !customer.isZero() {
		o.Customer = &order.Customer{ID: customer.ID, Name: customer.Name, Email: customer.Email}
	}
	if seller.isZero() {
		seller.ID = sellerID
	}
	if !seller.isZero() {
		o.Seller = &order.Seller{ID: seller.ID, Name: seller.Name, Email: seller.Email, Role: seller.Role}
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = orderDate
	}
	if o.Items == nil {
		o.Items = []order.Item{}
	}
	return o, nil
}

// DecodeOrders reads an array of orders.
func DecodeOrders(d *jx.Decoder) ([]order.Order, error) {
	orders := make([]order.Order, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		o, err := DecodeOrder(d)
		if err != nil {
			return errors.Wrapf(err, "order %d", len(orders))
		}
		orders = append(orders, o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// DecodeItems reads an array of order lines. Null yields nil.
func DecodeItems(d *jx.Decoder) ([]order.Item, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	items := make([]order.Item, 0)
	err := d.Arr(func(d *jx.Decoder) error {
		item, err := decodeItem(d)
		if err != nil {
			return errors.Wrapf(err, "item %d", len(items))
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func decodeItem(d *jx.Decoder) (order.Item, error) {
	var item order.Item
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			item.ProductID, err = decodeInt(d)
		case "product":
			item.Product, err = decodeItemProduct(d)
		case "quantity":
			var v int64
			v, err = decodeInt(d)
			item.Quantity = int(v)
		case "price":
			item.Price, err = decodeMoney(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %q", key)
		}
		return nil
	})
	if err != nil {
		return order.Item{}, err
	}
	if item.ProductID == 0 && item.Product != nil {
		item.ProductID = item.Product.ID
	}
	return item, nil
}

// decodeItemProduct reads the product of an order line, which is an embedded
// product, an id or a name.
func decodeItemProduct(d *jx.Decoder) (*product.Product, error) {
	r, err := decodeRelation(d)
	if err != nil || r.isZero() {
		return nil, err
	}
	if r.Object == nil {
		return &product.Product{ID: r.ID, Name: r.Name}, nil
	}
	p, err := DecodeProduct(jx.DecodeBytes(r.Object))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// EncodeOrder writes o as an order object.
func EncodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("id")
	e.Int64(o.ID)
	if o.OrderNumber != "" {
		e.FieldStart("orderNumber")
		e.Str(o.OrderNumber)
	}

	e.FieldStart("customer")
	if c := o.Customer; c != nil {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(c.ID) })
			e.Field("name", func(e *jx.Encoder) { e.Str(c.Name) })
			e.Field("email", func(e *jx.Encoder) { e.Str(c.Email) })
		})
	} else {
		e.Null()
	}

	e.FieldStart("seller")
	if s := o.Seller; s != nil {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Int64(s.ID) })
			e.Field("name", func(e *jx.Encoder) { e.Str(s.Name) })
			e.Field("email", func(e *jx.Encoder) { e.Str(s.Email) })
			e.Field("role", func(e *jx.Encoder) { e.Str(s.Role) })
		})
	} else {
		e.Null()
	}

	e.FieldStart("items")
	EncodeItems(e, o.Items)

	e.FieldStart("total")
	encodeMoney(e, o.Total)
	e.FieldStart("status")
	e.Str(string(o.Status))
	e.FieldStart("paymentStatus")
	e.Str(string(o.PaymentStatus))
	if o.PaymentMethod != "" {
		e.FieldStart("paymentMethod")
		e.Str(string(o.PaymentMethod))
	}
	if !o.CreatedAt.IsZero() {
		e.FieldStart("createdAt")
		encodeTime(e, o.CreatedAt)
	}
	if !o.UpdatedAt.IsZero() {
		e.FieldStart("updatedAt")
		encodeTime(e, o.UpdatedAt)
	}
	e.ObjEnd()
}

// EncodeItems writes items as an array of order lines.
func EncodeItems(e *jx.Encoder, items []order.Item) {
	e.ArrStart()
	for _, item := range items {
		encodeItem(e, item)
	}
	e.ArrEnd()
}

func encodeItem(e *jx.Encoder, item order.Item) {
	e.ObjStart()
	e.FieldStart("productId")
	e.Int64(item.ProductID)
	if item.Product != nil {
		e.FieldStart("product")
		EncodeProduct(e, *item.Product)
	}
	e.FieldStart("quantity")
	e.Int(item.Quantity)
	e.FieldStart("price")
	encodeMoney(e, item.Price)
	e.ObjEnd()
}
