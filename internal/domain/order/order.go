package order

import (
	"context"
	"strconv"
	"time"

	"github.com/xenking/backoffice-insights/internal/domain/product"
)

// Status is the fulfilment state of an order.
type Status string

// Order statuses used by the back-office.
const (
	StatusPending   Status = "PENDING"
	StatusPreparing Status = "EN_PREPARACION"
	StatusShipped   Status = "ENVIADO"
	StatusCompleted Status = "COMPLETADO"
	StatusCanceled  Status = "CANCELADO"
)

// PaymentStatus is the payment state of an order.
type PaymentStatus string

// Payment statuses used by the back-office.
const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAGADO"
	PaymentFailed  PaymentStatus = "FALLIDO"
)

// PaymentMethod is how the customer paid.
type PaymentMethod string

// Payment methods used by the back-office.
const (
	MethodCard             PaymentMethod = "TARJETA"
	MethodTransfer         PaymentMethod = "TRANSFERENCIA"
	MethodInternalTransfer PaymentMethod = "TRANSFERENCIA_INTERNA"
	MethodCash             PaymentMethod = "EFECTIVO"
)

// RoleAdmin is the seller role whose sales earn platform commissions.
const RoleAdmin = "admin"

// Order is a read-only snapshot of a back-office order.
//
// Customer and Seller are nil when the relation is absent. An empty
// OrderNumber and a zero UpdatedAt also mean "absent".
type Order struct {
	ID            int64
	OrderNumber   string
	Customer      *Customer
	Seller        *Seller
	Items         []Item
	Total         float64
	Status        Status
	PaymentStatus PaymentStatus
	PaymentMethod PaymentMethod
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Number returns the display number of the order, falling back to "#<id>".
func (o Order) Number() string {
	if o.OrderNumber != "" {
		return o.OrderNumber
	}
	return "#" + strconv.FormatInt(o.ID, 10)
}

// ProcessedAt returns the last update time, or the creation time when the
// order was never updated.
func (o Order) ProcessedAt() time.Time {
	if !o.UpdatedAt.IsZero() {
		return o.UpdatedAt
	}
	return o.CreatedAt
}

// Item is a single order line.
type Item struct {
	ProductID int64
	Product   *product.Product
	Quantity  int
	Price     float64
}

// Customer identifies the buyer of an order.
type Customer struct {
	ID    int64
	Name  string
	Email string
}

// Seller identifies the staff member who processed an order.
type Seller struct {
	ID    int64
	Name  string
	Email string
	Role  string
}

// Repository provides read access to an order snapshot.
type Repository interface {
	List(ctx context.Context) ([]Order, error)
}
