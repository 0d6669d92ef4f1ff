// Package datasource normalizes a record of CRUD-style operations into
// a data source exposing the full operation set. Optional operations
// the record omits are synthesized once at construction: derivable
// ones (retrieveAll, filters, keyOf) are built from retrieve and keys,
// while mutations default to an unsupported-operation failure carrying
// the attempted method name.
package datasource

import (
	"context"
	"fmt"
	"reflect"

	"github.com/artpar/pathsource/ports"
)

// Pair is one (key, value) entry of a data source.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Capabilities is the capability record a data source is built from.
// Retrieve and Keys are mandatory; every other operation is optional.
// Equal overrides the value-equality semantics used by the KeyOf
// default; it defaults to structural equality (reflect.DeepEqual).
type Capabilities[K comparable, V any] struct {
	Retrieve      func(ctx context.Context, key K) (V, error)
	Keys          func(ctx context.Context) ([]K, error)
	RetrieveAll   func(ctx context.Context) ([]Pair[K, V], error)
	Create        func(ctx context.Context, value V) (K, error)
	Update        func(ctx context.Context, key K, value V) (bool, error)
	Remove        func(ctx context.Context, key K) (bool, error)
	FilterByKey   func(ctx context.Context, pred func(K) bool) ([]V, error)
	FilterByValue func(ctx context.Context, pred func(V) bool) ([]V, error)
	KeyOf         func(ctx context.Context, value V) (K, error)
	Equal         func(a, b V) bool
}

// DataSource exposes the normalized operation set. The dispatch table
// is resolved once at construction and immutable thereafter.
type DataSource[K comparable, V any] struct {
	retrieve      func(ctx context.Context, key K) (V, error)
	keys          func(ctx context.Context) ([]K, error)
	retrieveAll   func(ctx context.Context) ([]Pair[K, V], error)
	create        func(ctx context.Context, value V) (K, error)
	update        func(ctx context.Context, key K, value V) (bool, error)
	remove        func(ctx context.Context, key K) (bool, error)
	filterByKey   func(ctx context.Context, pred func(K) bool) ([]V, error)
	filterByValue func(ctx context.Context, pred func(V) bool) ([]V, error)
	keyOf         func(ctx context.Context, value V) (K, error)
}

// New validates the capability record and synthesizes defaults for the
// omitted operations.
func New[K comparable, V any](caps Capabilities[K, V]) (*DataSource[K, V], error) {
	if caps.Retrieve == nil {
		return nil, &MissingOperationError{Op: "retrieve"}
	}
	if caps.Keys == nil {
		return nil, &MissingOperationError{Op: "keys"}
	}

	ds := &DataSource[K, V]{
		retrieve:      caps.Retrieve,
		keys:          caps.Keys,
		retrieveAll:   caps.RetrieveAll,
		create:        caps.Create,
		update:        caps.Update,
		remove:        caps.Remove,
		filterByKey:   caps.FilterByKey,
		filterByValue: caps.FilterByValue,
		keyOf:         caps.KeyOf,
	}

	if ds.retrieveAll == nil {
		ds.retrieveAll = func(ctx context.Context) ([]Pair[K, V], error) {
			keys, err := ds.keys(ctx)
			if err != nil {
				return nil, fmt.Errorf("list keys: %w", err)
			}
			pairs := make([]Pair[K, V], 0, len(keys))
			for _, k := range keys {
				v, err := ds.retrieve(ctx, k)
				if err != nil {
					return nil, fmt.Errorf("retrieve %v: %w", k, err)
				}
				pairs = append(pairs, Pair[K, V]{Key: k, Value: v})
			}
			return pairs, nil
		}
	}

	if ds.filterByKey == nil {
		ds.filterByKey = func(ctx context.Context, pred func(K) bool) ([]V, error) {
			pairs, err := ds.retrieveAll(ctx)
			if err != nil {
				return nil, err
			}
			var out []V
			for _, p := range pairs {
				if pred(p.Key) {
					out = append(out, p.Value)
				}
			}
			return out, nil
		}
	}

	if ds.filterByValue == nil {
		ds.filterByValue = func(ctx context.Context, pred func(V) bool) ([]V, error) {
			pairs, err := ds.retrieveAll(ctx)
			if err != nil {
				return nil, err
			}
			var out []V
			for _, p := range pairs {
				if pred(p.Value) {
					out = append(out, p.Value)
				}
			}
			return out, nil
		}
	}

	if ds.keyOf == nil {
		equal := caps.Equal
		if equal == nil {
			equal = func(a, b V) bool { return reflect.DeepEqual(a, b) }
		}
		ds.keyOf = func(ctx context.Context, value V) (K, error) {
			pairs, err := ds.retrieveAll(ctx)
			if err != nil {
				var zero K
				return zero, err
			}
			for _, p := range pairs {
				if equal(p.Value, value) {
					return p.Key, nil
				}
			}
			var zero K
			return zero, fmt.Errorf("key of value: %w", ErrNotFound)
		}
	}

	if ds.create == nil {
		ds.create = func(ctx context.Context, value V) (K, error) {
			var zero K
			return zero, &UnsupportedError{Op: "create"}
		}
	}
	if ds.update == nil {
		ds.update = func(ctx context.Context, key K, value V) (bool, error) {
			return false, &UnsupportedError{Op: "update"}
		}
	}
	if ds.remove == nil {
		ds.remove = func(ctx context.Context, key K) (bool, error) {
			return false, &UnsupportedError{Op: "remove"}
		}
	}

	return ds, nil
}

// Retrieve returns the value stored under key.
func (ds *DataSource[K, V]) Retrieve(ctx context.Context, key K) (V, error) {
	return ds.retrieve(ctx, key)
}

// Keys returns all keys of the data source.
func (ds *DataSource[K, V]) Keys(ctx context.Context) ([]K, error) {
	return ds.keys(ctx)
}

// RetrieveAll returns all entries in key order. When synthesized, a
// single failing retrieve fails the whole operation with the original
// failure as its cause.
func (ds *DataSource[K, V]) RetrieveAll(ctx context.Context) ([]Pair[K, V], error) {
	return ds.retrieveAll(ctx)
}

// Create stores a new value and returns its generated key.
func (ds *DataSource[K, V]) Create(ctx context.Context, value V) (K, error) {
	return ds.create(ctx, value)
}

// Update replaces the value under key. It reports false without error
// when the key is absent.
func (ds *DataSource[K, V]) Update(ctx context.Context, key K, value V) (bool, error) {
	return ds.update(ctx, key, value)
}

// Remove deletes the entry under key. It reports false without error
// when the key is absent.
func (ds *DataSource[K, V]) Remove(ctx context.Context, key K) (bool, error) {
	return ds.remove(ctx, key)
}

// FilterByKey returns the values whose keys satisfy pred, preserving
// key order.
func (ds *DataSource[K, V]) FilterByKey(ctx context.Context, pred func(K) bool) ([]V, error) {
	return ds.filterByKey(ctx, pred)
}

// FilterByValue returns the values satisfying pred, preserving key
// order.
func (ds *DataSource[K, V]) FilterByValue(ctx context.Context, pred func(V) bool) ([]V, error) {
	return ds.filterByValue(ctx, pred)
}

// KeyOf returns the key of the first entry whose value equals the
// argument, or ErrNotFound when no entry matches.
func (ds *DataSource[K, V]) KeyOf(ctx context.Context, value V) (K, error) {
	return ds.keyOf(ctx, value)
}

// ResolverFor adapts a data source to the type-erased resolution port.
// Keys that are not of the data source's key type fail the call.
func ResolverFor[K comparable, V any](ds *DataSource[K, V]) ports.Resolver {
	return ports.ResolverFunc(func(ctx context.Context, key any) (any, error) {
		k, ok := key.(K)
		if !ok {
			var zero K
			return nil, fmt.Errorf("key %v (%T) is not assignable to key type %T", key, key, zero)
		}
		return ds.Retrieve(ctx, k)
	})
}
