// Copyright 2018 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package shard

import (
	"github.com/pingcap/errors"

	"github.com/kvbench/go-tpcc/pkg/kv"
)

var (
	// ErrShardNotFound is returned when a warehouse has no entry in the
	// partition map.
	ErrShardNotFound = errors.New("shard: warehouse not mapped to any shard")

	// ErrShardUnavailable is returned when a shard has no live connection.
	ErrShardUnavailable = errors.New("shard: no live connection for shard")
)

// Router owns the static warehouse partition map and the per-shard store
// connections. It is built once at startup and passed to every transaction;
// there is no ambient global connection state.
type Router struct {
	partition map[int64]int
	stores    []kv.Store
}

// NewRouter creates a Router over the given stores, one per shard.
// When partition is nil, warehouse w is assigned to shard (w-1) mod n for
// the given warehouse count, matching the loader's default placement.
func NewRouter(stores []kv.Store, warehouses int64, partition map[int64]int) *Router {
	if partition == nil {
		partition = make(map[int64]int, warehouses)
		for w := int64(1); w <= warehouses; w++ {
			partition[w] = int((w - 1) % int64(len(stores)))
		}
	}
	return &Router{
		partition: partition,
		stores:    stores,
	}
}

// Lookup resolves a warehouse id to the shard that owns it.
func (r *Router) Lookup(warehouseID int64) (int, error) {
	sID, ok := r.partition[warehouseID]
	if !ok {
		return 0, errors.Annotatef(ErrShardNotFound, "warehouse %d", warehouseID)
	}
	return sID, nil
}

// Store returns the store connection of a shard.
func (r *Router) Store(shardID int) (kv.Store, error) {
	if shardID < 0 || shardID >= len(r.stores) || r.stores[shardID] == nil {
		return nil, errors.Annotatef(ErrShardUnavailable, "shard %d", shardID)
	}
	return r.stores[shardID], nil
}

// StoreForWarehouse resolves a warehouse id straight to its shard's store.
func (r *Router) StoreForWarehouse(warehouseID int64) (kv.Store, error) {
	sID, err := r.Lookup(warehouseID)
	if err != nil {
		return nil, err
	}
	return r.Store(sID)
}

// Stores returns all shard stores in shard-id order. The loader uses this to
// replicate the Item table and to wipe tables on reset.
func (r *Router) Stores() []kv.Store {
	return r.stores
}

// Close closes every shard connection, returning the first error seen.
func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.stores {
		if s == nil {
			continue
		}
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
