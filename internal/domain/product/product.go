package product

import "context"

// Product is a catalog item as seen by the back-office.
type Product struct {
	ID       int64
	Name     string
	SKU      string
	Price    float64
	Stock    int
	Status   string
	Category Ref
	Brand    Ref
}

// Ref is the normalized shape of a product relation (category, brand).
// A zero Ref means the relation was absent.
type Ref struct {
	ID   int64
	Name string
}

// IsZero reports whether the relation is absent.
func (r Ref) IsZero() bool {
	return r.ID == 0 && r.Name == ""
}

// Repository provides read access to a product catalog snapshot.
type Repository interface {
	List(ctx context.Context) ([]Product, error)
}
