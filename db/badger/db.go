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

package badger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgraph-io/badger"
	"github.com/magiconair/properties"

	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/prop"
	"github.com/kvbench/go-tpcc/pkg/util"
)

// Each shard is its own badger instance under <badger.dir>/<addr>, where
// addr is the shard's entry in shard.addrs.

// properties
const (
	badgerDir        = "badger.dir"
	badgerDirDefault = "/tmp/go-tpcc/badger"
	badgerSyncWrites = "badger.sync_writes"
)

type badgerCreator struct {
}

type badgerDB struct {
	db *badger.DB

	bufPool *util.BufPool
}

func (c badgerCreator) Create(p *properties.Properties, shardID int, addr string) (kv.Store, error) {
	dir := filepath.Join(p.GetString(badgerDir, badgerDirDefault), addr)
	if p.GetBool(prop.DropData, prop.DropDataDefault) {
		os.RemoveAll(dir)
	}

	opts := badger.DefaultOptions(dir)
	opts.SyncWrites = p.GetBool(badgerSyncWrites, false)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &badgerDB{
		db:      db,
		bufPool: util.NewBufPool(),
	}, nil
}

func storeKey(table string, key string) []byte {
	return []byte(fmt.Sprintf("%s/%s", table, key))
}

func (db *badgerDB) Close() error {
	return db.db.Close()
}

func (db *badgerDB) Read(ctx context.Context, table string, key string, fields []string) (map[string][]byte, error) {
	var values map[string][]byte
	err := db.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(storeKey(table, key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			values, err = util.DecodeRow(val, fields)
			return err
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (db *badgerDB) ScanPrefix(ctx context.Context, table string, prefix string, fields []string) ([]kv.Record, error) {
	scanPrefix := storeKey(table, prefix)
	tablePrefix := len(table) + 1

	var res []kv.Record
	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = scanPrefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.ValidForPrefix(scanPrefix); it.Next() {
			item := it.Item()
			key := string(item.Key())[tablePrefix:]
			err := item.Value(func(val []byte) error {
				values, err := util.DecodeRow(val, fields)
				if err != nil {
					return err
				}
				res = append(res, kv.Record{Key: key, Values: values})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (db *badgerDB) Insert(ctx context.Context, table string, key string, values map[string][]byte) error {
	buf := db.bufPool.Get()
	defer db.bufPool.Put(buf)

	buf, err := util.EncodeRow(values, buf)
	if err != nil {
		return err
	}
	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Set(storeKey(table, key), buf)
	})
}

func (db *badgerDB) Update(ctx context.Context, table string, key string, values map[string][]byte) error {
	return db.db.Update(func(txn *badger.Txn) error {
		sk := storeKey(table, key)
		data := make(map[string][]byte, len(values))

		item, err := txn.Get(sk)
		if err == nil {
			err = item.Value(func(val []byte) error {
				data, err = util.DecodeRow(val, nil)
				return err
			})
		}
		if err != nil && err != badger.ErrKeyNotFound {
			return err
		}

		for field, value := range values {
			data[field] = value
		}
		buf, err := util.EncodeRow(data, nil)
		if err != nil {
			return err
		}
		return txn.Set(sk, buf)
	})
}

func (db *badgerDB) Delete(ctx context.Context, table string, key string) error {
	return db.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(storeKey(table, key))
	})
}

func (db *badgerDB) Drop(ctx context.Context, table string) error {
	scanPrefix := storeKey(table, "")
	for {
		var keys [][]byte
		err := db.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = scanPrefix
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			for it.Rewind(); it.ValidForPrefix(scanPrefix); it.Next() {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
			return nil
		})
		if err != nil {
			return err
		}
		if len(keys) == 0 {
			return nil
		}
		wb := db.db.NewWriteBatch()
		for _, k := range keys {
			if err := wb.Delete(k); err != nil {
				wb.Cancel()
				return err
			}
		}
		if err := wb.Flush(); err != nil {
			return err
		}
	}
}

func init() {
	kv.RegisterStoreCreator("badger", badgerCreator{})
}
