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

package boltdb

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/boltdb/bolt"
	"github.com/magiconair/properties"

	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/prop"
	"github.com/kvbench/go-tpcc/pkg/util"
)

// Each shard is one bolt file under <bolt.dir>/<addr>.db with a bucket per
// table.

// properties
const (
	boltDir        = "bolt.dir"
	boltDirDefault = "/tmp/go-tpcc/bolt"
	boltTimeout    = "bolt.timeout_ms"
	boltNoGrowSync = "bolt.no_grow_sync"
)

type boltCreator struct {
}

type boltDB struct {
	db *bolt.DB

	bufPool *util.BufPool
}

func (c boltCreator) Create(p *properties.Properties, shardID int, addr string) (kv.Store, error) {
	dir := p.GetString(boltDir, boltDirDefault)
	path := filepath.Join(dir, addr+".db")
	if p.GetBool(prop.DropData, prop.DropDataDefault) {
		os.Remove(path)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{
		Timeout:    time.Duration(p.GetInt64(boltTimeout, 0)) * time.Millisecond,
		NoGrowSync: p.GetBool(boltNoGrowSync, false),
	})
	if err != nil {
		return nil, err
	}
	return &boltDB{
		db:      db,
		bufPool: util.NewBufPool(),
	}, nil
}

func (db *boltDB) Close() error {
	return db.db.Close()
}

func (db *boltDB) Read(ctx context.Context, table string, key string, fields []string) (map[string][]byte, error) {
	var values map[string][]byte
	err := db.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return kv.ErrNotFound
		}
		row := b.Get([]byte(key))
		if row == nil {
			return kv.ErrNotFound
		}
		var err error
		values, err = util.DecodeRow(row, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return values, nil
}

func (db *boltDB) ScanPrefix(ctx context.Context, table string, prefix string, fields []string) ([]kv.Record, error) {
	var res []kv.Record
	err := db.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		p := []byte(prefix)
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			values, err := util.DecodeRow(v, fields)
			if err != nil {
				return err
			}
			res = append(res, kv.Record{Key: string(k), Values: values})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (db *boltDB) Insert(ctx context.Context, table string, key string, values map[string][]byte) error {
	buf := db.bufPool.Get()
	defer db.bufPool.Put(buf)

	buf, err := util.EncodeRow(values, buf)
	if err != nil {
		return err
	}
	return db.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		return b.Put([]byte(key), buf)
	})
}

func (db *boltDB) Update(ctx context.Context, table string, key string, values map[string][]byte) error {
	return db.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(table))
		if err != nil {
			return err
		}
		data := make(map[string][]byte, len(values))
		if row := b.Get([]byte(key)); row != nil {
			if data, err = util.DecodeRow(row, nil); err != nil {
				return err
			}
		}
		for field, value := range values {
			data[field] = value
		}
		buf, err := util.EncodeRow(data, nil)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), buf)
	})
}

func (db *boltDB) Delete(ctx context.Context, table string, key string) error {
	return db.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(table))
		if b == nil {
			return nil
		}
		return b.Delete([]byte(key))
	})
}

func (db *boltDB) Drop(ctx context.Context, table string) error {
	return db.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket([]byte(table)) == nil {
			return nil
		}
		return tx.DeleteBucket([]byte(table))
	})
}

func init() {
	kv.RegisterStoreCreator("boltdb", boltCreator{})
}
