package main

import (
	"testing"

	"github.com/go-faster/jx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/backoffice-insights/internal/wire"
)

func TestDecodeCollection(t *testing.T) {
	for _, tt := range []struct {
		name  string
		input string
	}{
		{"Array", `[{"id": 1, "name": "Cap", "price": "2.50", "stock": 3}, {"id": 2, "name": "Hat"}]`},
		{"Envelope", `{"pagination": {"page": 1}, "data": [{"id": 1, "name": "Cap", "price": 2.5, "stock": 3}, {"id": 2, "name": "Hat"}]}`},
	} {
		t.Run(tt.name, func(t *testing.T) {
			products, err := decodeCollection(jx.DecodeStr(tt.input), wire.DecodeProducts)
			require.NoError(t, err)
			require.Len(t, products, 2)
			assert.Equal(t, "Cap", products[0].Name)
			assert.InDelta(t, 2.5, products[0].Price, 1e-9)
			assert.Equal(t, 3, products[0].Stock)
		})
	}
}

func TestDecodeCollection_Invalid(t *testing.T) {
	_, err := decodeCollection(jx.DecodeStr(`"nope"`), wire.DecodeOrders)
	assert.Error(t, err)

	_, err = decodeCollection(jx.DecodeStr(`{"data": [{"id": []}]}`), wire.DecodeOrders)
	assert.Error(t, err)
}
