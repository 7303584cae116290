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

package tpcc

import (
	"context"
	"testing"
	"time"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/shard"
)

func newShardedDriver(t *testing.T, shards int, warehouses int64) (*Driver, []kv.Store) {
	t.Helper()

	creator := kv.GetStoreCreator("memory")
	if creator == nil {
		t.Fatal("memory store is not registered")
	}
	p := properties.NewProperties()
	stores := make([]kv.Store, shards)
	for i := range stores {
		store, err := creator.Create(p, i, "shard")
		if err != nil {
			t.Fatalf("create memory store: %v", err)
		}
		stores[i] = store
	}
	return NewDriver(p, shard.NewRouter(stores, warehouses, nil)), stores
}

func TestLoadRoutesByWarehouse(t *testing.T) {
	d, stores := newShardedDriver(t, 2, 2)
	ctx := context.Background()

	mustLoad(t, d, TableWarehouse, [][]interface{}{
		{int64(1), "W-ONE", "s", "s", "c", "CA", "z", 0.05, float64(0)},
		{int64(2), "W-TWO", "s", "s", "c", "CA", "z", 0.05, float64(0)},
	})

	// Warehouse w lives on shard (w-1) mod 2 and nowhere else.
	if _, err := stores[0].Read(ctx, TableWarehouse, Key(1), nil); err != nil {
		t.Fatalf("warehouse 1 missing on shard 0: %v", err)
	}
	if _, err := stores[0].Read(ctx, TableWarehouse, Key(2), nil); err != kv.ErrNotFound {
		t.Fatalf("warehouse 2 on shard 0: %v", err)
	}
	if _, err := stores[1].Read(ctx, TableWarehouse, Key(2), nil); err != nil {
		t.Fatalf("warehouse 2 missing on shard 1: %v", err)
	}
}

func TestLoadReplicatesItems(t *testing.T) {
	d, stores := newShardedDriver(t, 2, 2)
	ctx := context.Background()

	mustLoad(t, d, TableItem, [][]interface{}{
		{int64(1), int64(1), "widget", float64(10), "data"},
	})

	for i, store := range stores {
		if _, err := store.Read(ctx, TableItem, Key(1), nil); err != nil {
			t.Fatalf("item missing on shard %d: %v", i, err)
		}
	}
}

func TestLoadHistorySyntheticKeys(t *testing.T) {
	d, stores := newShardedDriver(t, 1, 1)
	ctx := context.Background()
	now := time.Now()

	mustLoad(t, d, TableHistory, [][]interface{}{
		{int64(1), int64(1), int64(1), int64(1), int64(1), now, float64(10), "h"},
		{int64(1), int64(1), int64(1), int64(1), int64(1), now, float64(10), "h"},
	})

	// Identical tuples must not collide.
	recs, err := stores[0].ScanPrefix(ctx, TableHistory, "", nil)
	if err != nil {
		t.Fatalf("scan history: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("%d history records, want 2", len(recs))
	}
}

func TestLoadRejectsBadTuples(t *testing.T) {
	d, _ := newShardedDriver(t, 1, 1)
	ctx := context.Background()

	err := d.LoadTuples(ctx, "NO_SUCH_TABLE", [][]interface{}{{int64(1)}})
	if errors.Cause(err) != ErrUnknownTable {
		t.Fatalf("err = %v, want ErrUnknownTable", err)
	}

	err = d.LoadTuples(ctx, TableNewOrder, [][]interface{}{{int64(1), int64(1)}})
	if err == nil {
		t.Fatal("expected an arity error for a short tuple")
	}

	if err := d.LoadTuples(ctx, TableNewOrder, nil); err != nil {
		t.Fatalf("empty load: %v", err)
	}
}
