// Package cache keeps order and product snapshots in a shared key-value store
// so that replicas do not each walk the whole back-office on every request.
//
// Entries are the wire JSON encoding of a snapshot, gzip-compressed. The
// cache is best effort: store failures and corrupt entries are logged and the
// snapshot is fetched from the source instead.
package cache

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/xenking/backoffice-insights/internal/domain/order"
	"github.com/xenking/backoffice-insights/internal/domain/product"
	"github.com/xenking/backoffice-insights/internal/wire"
)

// Key prefixes of cached snapshots. The version suffix changes with the
// encoding.
const (
	OrdersKey   = "insights:snapshot:orders:v1"
	ProductsKey = "insights:snapshot:products:v1"
)

// fetchTimeout bounds a shared source fetch, which outlives the request that
// started it.
const fetchTimeout = time.Minute

// Store is a byte-valued key-value store with expiry.
type Store interface {
	// Get returns the value of key and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// snapshot caches the result of a list call under a single key.
type snapshot[T any] struct {
	key    string
	store  Store
	ttl    time.Duration
	source func(ctx context.Context) ([]T, error)
	encode func(e *jx.Encoder, v T)
	decode func(d *jx.Decoder) ([]T, error)
	group  singleflight.Group
}

func (s *snapshot[T]) list(ctx context.Context) ([]T, error) {
	lg := zctx.From(ctx).With(zap.String("key", s.key))

	switch b, ok, err := s.store.Get(ctx, s.key); {
	case err != nil:
		lg.Warn("Cache read failed", zap.Error(err))
	case ok:
		v, err := s.unpack(b)
		if err == nil {
			return v, nil
		}
		lg.Warn("Dropping corrupt cache entry", zap.Error(err))
	}

	// Concurrent misses share one fetch from the source. The fetch is detached
	// from the caller that started it, so one canceled request does not fail
	// the others waiting on it.
	ch := s.group.DoChan(s.key, func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), fetchTimeout)
		defer cancel()

		v, err := s.source(ctx)
		if err != nil {
			return nil, err
		}
		b, err := s.pack(v)
		if err != nil {
			lg.Warn("Cache encode failed", zap.Error(err))
			return v, nil
		}
		if err := s.store.Set(ctx, s.key, b, s.ttl); err != nil {
			lg.Warn("Cache write failed", zap.Error(err))
		}
		return v, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]T), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *snapshot[T]) pack(v []T) ([]byte, error) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)

	e.ArrStart()
	for _, item := range v {
		s.encode(e, item)
	}
	e.ArrEnd()

	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	if _, err := zw.Write(e.Bytes()); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "compress")
	}
	return buf.Bytes(), nil
}

func (s *snapshot[T]) unpack(b []byte) ([]T, error) {
	zr, err := pgzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}
	defer func() { _ = zr.Close() }()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errors.Wrap(err, "decompress")
	}
	v, err := s.decode(jx.DecodeBytes(raw))
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}
	return v, nil
}

// OrderCache is an order.Repository reading through a Store.
type OrderCache struct {
	s *snapshot[order.Order]
}

var _ order.Repository = (*OrderCache)(nil)

// Orders wraps repo with a cache of its whole snapshot kept for ttl.
func Orders(repo order.Repository, store Store, ttl time.Duration) *OrderCache {
	return &OrderCache{s: &snapshot[order.Order]{
		key:    OrdersKey,
		store:  store,
		ttl:    ttl,
		source: repo.List,
		encode: wire.EncodeOrder,
		decode: wire.DecodeOrders,
	}}
}

// List implements order.Repository.
func (c *OrderCache) List(ctx context.Context) ([]order.Order, error) {
	return c.s.list(ctx)
}

// ProductCache is a product.Repository reading through a Store.
type ProductCache struct {
	s *snapshot[product.Product]
}

var _ product.Repository = (*ProductCache)(nil)

// Products wraps repo with a cache of its whole snapshot kept for ttl.
func Products(repo product.Repository, store Store, ttl time.Duration) *ProductCache {
	return &ProductCache{s: &snapshot[product.Product]{
		key:    ProductsKey,
		store:  store,
		ttl:    ttl,
		source: repo.List,
		encode: wire.EncodeProduct,
		decode: wire.DecodeProducts,
	}}
}

// List implements product.Repository.
func (c *ProductCache) List(ctx context.Context) ([]product.Product, error) {
	return c.s.list(ctx)
}
