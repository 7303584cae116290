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

package memory

import (
	"context"
	"testing"

	"github.com/magiconair/properties"

	"github.com/kvbench/go-tpcc/pkg/kv"
)

func newStore(t *testing.T) kv.Store {
	t.Helper()
	store, err := memoryCreator{}.Create(properties.NewProperties(), 0, "shard-0")
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	return store
}

func TestReadWrite(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if _, err := store.Read(ctx, "T", "k", nil); err != kv.ErrNotFound {
		t.Fatalf("read missing key: %v", err)
	}

	if err := store.Insert(ctx, "T", "k", map[string][]byte{"A": []byte("1"), "B": []byte("2")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	values, err := store.Read(ctx, "T", "k", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(values["A"]) != "1" || string(values["B"]) != "2" {
		t.Fatalf("values = %v", values)
	}

	values, err = store.Read(ctx, "T", "k", []string{"B"})
	if err != nil {
		t.Fatalf("read with fields: %v", err)
	}
	if len(values) != 1 || string(values["B"]) != "2" {
		t.Fatalf("projected values = %v", values)
	}
}

func TestUpdateMerges(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, "T", "k", map[string][]byte{"A": []byte("1"), "B": []byte("2")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Update(ctx, "T", "k", map[string][]byte{"B": []byte("9"), "C": []byte("3")}); err != nil {
		t.Fatalf("update: %v", err)
	}

	values, err := store.Read(ctx, "T", "k", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(values["A"]) != "1" || string(values["B"]) != "9" || string(values["C"]) != "3" {
		t.Fatalf("values = %v", values)
	}
}

func TestScanPrefix(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	for _, key := range []string{"10:1:1", "10:1:2", "10:2:1", "2:1:1"} {
		if err := store.Insert(ctx, "T", key, map[string][]byte{"K": []byte(key)}); err != nil {
			t.Fatalf("insert %s: %v", key, err)
		}
	}

	recs, err := store.ScanPrefix(ctx, "T", "10:1:", nil)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("%d records, want 2", len(recs))
	}
	// Keys come back in order.
	if recs[0].Key != "10:1:1" || recs[1].Key != "10:1:2" {
		t.Fatalf("keys = %s, %s", recs[0].Key, recs[1].Key)
	}

	recs, err = store.ScanPrefix(ctx, "T", "", nil)
	if err != nil {
		t.Fatalf("scan all: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("%d records, want 4", len(recs))
	}

	recs, err = store.ScanPrefix(ctx, "NO_SUCH_TABLE", "", nil)
	if err != nil || len(recs) != 0 {
		t.Fatalf("scan of missing table: %v, %d records", err, len(recs))
	}
}

func TestDeleteAndDrop(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, "T", "a", map[string][]byte{"A": []byte("1")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := store.Insert(ctx, "T", "b", map[string][]byte{"A": []byte("2")}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := store.Delete(ctx, "T", "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Read(ctx, "T", "a", nil); err != kv.ErrNotFound {
		t.Fatalf("read deleted key: %v", err)
	}

	if err := store.Drop(ctx, "T"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, err := store.Read(ctx, "T", "b", nil); err != kv.ErrNotFound {
		t.Fatalf("read after drop: %v", err)
	}
}

func TestReadCopies(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	if err := store.Insert(ctx, "T", "k", map[string][]byte{"A": []byte("1")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	values, err := store.Read(ctx, "T", "k", nil)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	values["A"][0] = 'X'

	values, err = store.Read(ctx, "T", "k", nil)
	if err != nil {
		t.Fatalf("reread: %v", err)
	}
	if string(values["A"]) != "1" {
		t.Fatal("mutating a read result changed the stored row")
	}
}
