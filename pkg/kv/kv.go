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

package kv

import (
	"context"
	"fmt"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
)

// ErrNotFound is returned by Read when no record exists under the key.
var ErrNotFound = errors.New("kv: record not found")

// Record is one keyed row of a table, with its column values decoded.
type Record struct {
	Key    string
	Values map[string][]byte
}

// StoreCreator creates a Store bound to one shard.
type StoreCreator interface {
	// Create opens a connection to the shard named by addr. For embedded
	// backends addr selects a local directory or namespace instead.
	Create(p *properties.Properties, shardID int, addr string) (Store, error)
}

// Store is the primitive key-value surface a shard exposes, one logical
// keyspace per table. Every operation blocks until the backend answers and
// honors ctx cancellation where the client library allows it.
type Store interface {
	// Close closes the connection to the shard.
	Close() error

	// Read returns the record stored under key, restricted to fields when
	// fields is non-empty. It returns ErrNotFound when no record exists.
	Read(ctx context.Context, table string, key string, fields []string) (map[string][]byte, error)

	// ScanPrefix returns every record of the table whose key starts with
	// prefix, in ascending key order. An empty prefix scans the whole table.
	ScanPrefix(ctx context.Context, table string, prefix string, fields []string) ([]Record, error)

	// Insert writes a new record under key, overwriting any existing one.
	Insert(ctx context.Context, table string, key string, values map[string][]byte) error

	// Update merges the given field values into the record stored under key.
	Update(ctx context.Context, table string, key string, values map[string][]byte) error

	// Delete removes the record stored under key, if any.
	Delete(ctx context.Context, table string, key string) error

	// Drop removes every record of the table.
	Drop(ctx context.Context, table string) error
}

var storeCreators = map[string]StoreCreator{}

// RegisterStoreCreator registers a creator for the backend.
func RegisterStoreCreator(name string, creator StoreCreator) {
	_, ok := storeCreators[name]
	if ok {
		panic(fmt.Sprintf("duplicate register store %s", name))
	}

	storeCreators[name] = creator
}

// GetStoreCreator gets the StoreCreator for the backend.
func GetStoreCreator(name string) StoreCreator {
	return storeCreators[name]
}
