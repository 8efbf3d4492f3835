package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
	"github.com/xenking/backoffice-insights/internal/wire"
)

type memStore struct {
	mu      sync.Mutex
	data    map[string][]byte
	ttls    map[string]time.Duration
	getErr  error
	setErr  error
	setKeys []string
}

func newMemStore() *memStore {
	return &memStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, false, m.getErr
	}
	b, ok := m.data[key]
	return b, ok, nil
}

func (m *memStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	m.ttls[key] = ttl
	m.setKeys = append(m.setKeys, key)
	return nil
}

type countingOrders struct {
	orders []order.Order
	err    error
	calls  atomic.Int32
}

func (c *countingOrders) List(context.Context) ([]order.Order, error) {
	c.calls.Add(1)
	return c.orders, c.err
}

type countingProducts struct {
	products []product.Product
	calls    atomic.Int32
}

func (c *countingProducts) List(context.Context) ([]product.Product, error) {
	c.calls.Add(1)
	return c.products, nil
}

func sampleOrders() []order.Order {
	return []order.Order{
		{
			ID:            1,
			OrderNumber:   "ORD-1",
			Seller:        &order.Seller{ID: 1, Name: "A", Email: "a@x", Role: order.RoleAdmin},
			Items:         []order.Item{{ProductID: 3, Quantity: 2, Price: 4.5}},
			Total:         9,
			Status:        order.StatusCompleted,
			PaymentStatus: order.PaymentPaid,
			CreatedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{ID: 2, Items: []order.Item{}, Total: 1.25},
	}
}

func TestOrders_ReadThrough(t *testing.T) {
	store := newMemStore()
	source := &countingOrders{orders: sampleOrders()}
	c := Orders(source, store, time.Minute)

	first, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleOrders(), first)
	assert.Equal(t, []string{OrdersKey}, store.setKeys)
	assert.Equal(t, time.Minute, store.ttls[OrdersKey])

	second, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleOrders(), second)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestOrders_SourceError(t *testing.T) {
	errBoom := errors.New("boom")
	store := newMemStore()
	c := Orders(&countingOrders{err: errBoom}, store, time.Minute)

	_, err := c.List(context.Background())
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, store.setKeys)
}

func TestOrders_StoreFailuresAreNotFatal(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("get")
	store.setErr = errors.New("set")
	source := &countingOrders{orders: sampleOrders()}
	c := Orders(source, store, time.Minute)

	for range 2 {
		got, err := c.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 2)
	}
	assert.Equal(t, int32(2), source.calls.Load())
}

func TestOrders_CorruptEntry(t *testing.T) {
	store := newMemStore()
	store.data[OrdersKey] = []byte("not gzip")
	source := &countingOrders{orders: sampleOrders()}
	c := Orders(source, store, time.Minute)

	got, err := c.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, int32(1), source.calls.Load())

	// The entry was replaced with a valid one.
	_, err = c.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), source.calls.Load())
}

func TestProducts_ReadThrough(t *testing.T) {
	products := []product.Product{
		{ID: 1, Name: "A", Price: 2, Stock: 3, Category: product.Ref{ID: 1, Name: "c"}},
		{ID: 2, Name: "B"},
	}
	store := newMemStore()
	source := &countingProducts{products: products}
	c := Products(source, store, 0)

	for range 3 {
		got, err := c.List(context.Background())
		require.NoError(t, err)
		assert.Equal(t, products, got)
	}
	assert.Equal(t, int32(1), source.calls.Load())
	assert.Equal(t, []string{ProductsKey}, store.setKeys)
}

func TestPackIsCompressed(t *testing.T) {
	var orders []order.Order
	for i := range 200 {
		o := sampleOrders()[0]
		o.ID = int64(i)
		orders = append(orders, o)
	}
	s := &snapshot[order.Order]{encode: wire.EncodeOrder, decode: wire.DecodeOrders}

	b, err := s.pack(orders)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, b[:2])

	got, err := s.unpack(b)
	require.NoError(t, err)
	assert.Equal(t, orders, got)
}

type blockingOrders struct {
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (b *blockingOrders) List(ctx context.Context) ([]order.Order, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
	}
	select {
	case <-b.release:
		return []order.Order{{ID: 7, Items: []order.Item{}}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestOrders_CanceledCallerDoesNotFailOthers(t *testing.T) {
	src := &blockingOrders{started: make(chan struct{}), release: make(chan struct{})}
	store := newMemStore()
	c := Orders(src, store, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.List(ctx)
		firstErr <- err
	}()
	<-src.started

	type result struct {
		orders []order.Order
		err    error
	}
	second := make(chan result, 1)
	go func() {
		orders, err := c.List(context.Background())
		second <- result{orders: orders, err: err}
	}()

	cancel()
	select {
	case err := <-firstErr:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("canceled caller still waiting on the shared fetch")
	}

	close(src.release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		require.Len(t, res.orders, 1)
		assert.Equal(t, int64(7), res.orders[0].ID)
	case <-time.After(5 * time.Second):
		t.Fatal("second caller did not complete")
	}

	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, []string{OrdersKey}, store.setKeys)
}
