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

package redis

import (
	"context"
	"sort"
	"strings"

	goredis "github.com/go-redis/redis/v9"
	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/util"
)

// One redis server per shard, addressed by the shard.addrs entry. Records
// are row-codec encoded strings under "<table>/<key>", so tables share the
// server's single keyspace the way the original drove one socket server per
// table file.

// properties
const (
	redisPassword  = "redis.password"
	redisDB        = "redis.db"
	redisScanCount = "redis.scan_count"

	redisScanCountDefault = int64(256)
)

type redisCreator struct {
}

type redisStore struct {
	client    *goredis.Client
	scanCount int64

	bufPool *util.BufPool
}

func (c redisCreator) Create(p *properties.Properties, shardID int, addr string) (kv.Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: p.GetString(redisPassword, ""),
		DB:       p.GetInt(redisDB, 0),
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Annotatef(err, "connect redis shard %d at %s", shardID, addr)
	}

	return &redisStore{
		client:    client,
		scanCount: p.GetInt64(redisScanCount, redisScanCountDefault),
		bufPool:   util.NewBufPool(),
	}, nil
}

func storeKey(table string, key string) string {
	return table + "/" + key
}

func (r *redisStore) Close() error {
	return r.client.Close()
}

func (r *redisStore) Read(ctx context.Context, table string, key string, fields []string) (map[string][]byte, error) {
	res, err := r.client.Get(ctx, storeKey(table, key)).Result()
	if err == goredis.Nil {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return util.DecodeRow([]byte(res), fields)
}

func (r *redisStore) ScanPrefix(ctx context.Context, table string, prefix string, fields []string) ([]kv.Record, error) {
	match := storeKey(table, prefix) + "*"
	tablePrefix := table + "/"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, r.scanCount).Result()
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	res := make([]kv.Record, 0, len(keys))
	for i, k := range keys {
		v, ok := vals[i].(string)
		if !ok {
			// Deleted between SCAN and MGET.
			continue
		}
		values, err := util.DecodeRow([]byte(v), fields)
		if err != nil {
			return nil, err
		}
		res = append(res, kv.Record{Key: strings.TrimPrefix(k, tablePrefix), Values: values})
	}
	return res, nil
}

func (r *redisStore) Insert(ctx context.Context, table string, key string, values map[string][]byte) error {
	buf := r.bufPool.Get()
	defer r.bufPool.Put(buf)

	buf, err := util.EncodeRow(values, buf)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, storeKey(table, key), string(buf), 0).Err()
}

func (r *redisStore) Update(ctx context.Context, table string, key string, values map[string][]byte) error {
	data, err := r.Read(ctx, table, key, nil)
	if err == kv.ErrNotFound {
		data = make(map[string][]byte, len(values))
	} else if err != nil {
		return err
	}
	for field, value := range values {
		data[field] = value
	}
	return r.Insert(ctx, table, key, data)
}

func (r *redisStore) Delete(ctx context.Context, table string, key string) error {
	return r.client.Del(ctx, storeKey(table, key)).Err()
}

func (r *redisStore) Drop(ctx context.Context, table string) error {
	match := table + "/*"
	var cursor uint64
	for {
		batch, next, err := r.client.Scan(ctx, cursor, match, r.scanCount).Result()
		if err != nil {
			return err
		}
		if len(batch) > 0 {
			if err := r.client.Del(ctx, batch...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func init() {
	kv.RegisterStoreCreator("redis", redisCreator{})
}
