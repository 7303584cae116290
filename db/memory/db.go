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
	"strings"
	"sync"

	"github.com/google/btree"
	"github.com/magiconair/properties"

	"github.com/kvbench/go-tpcc/pkg/kv"
)

// A memory store keeps one ordered in-process tree per table. It is the
// default backend and what the driver tests run against.

const btreeDegree = 16

type memoryCreator struct {
}

type row struct {
	key    string
	values map[string][]byte
}

func rowLess(a, b row) bool {
	return a.key < b.key
}

type memoryDB struct {
	sync.RWMutex

	tables map[string]*btree.BTreeG[row]
}

func (c memoryCreator) Create(p *properties.Properties, shardID int, addr string) (kv.Store, error) {
	return &memoryDB{
		tables: make(map[string]*btree.BTreeG[row]),
	}, nil
}

func (db *memoryDB) table(name string, create bool) *btree.BTreeG[row] {
	t, ok := db.tables[name]
	if !ok && create {
		t = btree.NewG(btreeDegree, rowLess)
		db.tables[name] = t
	}
	return t
}

func cloneValues(values map[string][]byte, fields []string) map[string][]byte {
	res := make(map[string][]byte, len(values))
	if len(fields) == 0 {
		for k, v := range values {
			res[k] = append([]byte(nil), v...)
		}
		return res
	}
	for _, f := range fields {
		if v, ok := values[f]; ok {
			res[f] = append([]byte(nil), v...)
		}
	}
	return res
}

func (db *memoryDB) Close() error {
	return nil
}

func (db *memoryDB) Read(ctx context.Context, table string, key string, fields []string) (map[string][]byte, error) {
	db.RLock()
	defer db.RUnlock()

	t := db.table(table, false)
	if t == nil {
		return nil, kv.ErrNotFound
	}
	r, ok := t.Get(row{key: key})
	if !ok {
		return nil, kv.ErrNotFound
	}
	return cloneValues(r.values, fields), nil
}

func (db *memoryDB) ScanPrefix(ctx context.Context, table string, prefix string, fields []string) ([]kv.Record, error) {
	db.RLock()
	defer db.RUnlock()

	t := db.table(table, false)
	if t == nil {
		return nil, nil
	}

	var res []kv.Record
	t.AscendGreaterOrEqual(row{key: prefix}, func(r row) bool {
		if !strings.HasPrefix(r.key, prefix) {
			return false
		}
		res = append(res, kv.Record{Key: r.key, Values: cloneValues(r.values, fields)})
		return true
	})
	return res, nil
}

func (db *memoryDB) Insert(ctx context.Context, table string, key string, values map[string][]byte) error {
	db.Lock()
	defer db.Unlock()

	db.table(table, true).ReplaceOrInsert(row{key: key, values: cloneValues(values, nil)})
	return nil
}

func (db *memoryDB) Update(ctx context.Context, table string, key string, values map[string][]byte) error {
	db.Lock()
	defer db.Unlock()

	t := db.table(table, true)
	r, ok := t.Get(row{key: key})
	if !ok {
		r = row{key: key, values: make(map[string][]byte, len(values))}
	}
	for k, v := range values {
		r.values[k] = append([]byte(nil), v...)
	}
	t.ReplaceOrInsert(r)
	return nil
}

func (db *memoryDB) Delete(ctx context.Context, table string, key string) error {
	db.Lock()
	defer db.Unlock()

	if t := db.table(table, false); t != nil {
		t.Delete(row{key: key})
	}
	return nil
}

func (db *memoryDB) Drop(ctx context.Context, table string) error {
	db.Lock()
	defer db.Unlock()

	delete(db.tables, table)
	return nil
}

func init() {
	kv.RegisterStoreCreator("memory", memoryCreator{})
}
