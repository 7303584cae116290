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

	"github.com/google/uuid"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
)

// LoadTuples converts relational tuples of one table into keyed records and
// writes each to the shard owning its warehouse. Tuple values must follow
// the table's declared column order. An empty tuple slice is a no-op.
//
// ITEM has no warehouse column, so item records are replicated to every
// shard; each transaction then reads items from its own shard.
//
// A routing or write failure aborts the load of the table and is returned
// annotated with the table and shard it happened on.
func (d *Driver) LoadTuples(ctx context.Context, tableName string, tuples [][]interface{}) error {
	if len(tuples) == 0 {
		return nil
	}

	desc, ok := tables[tableName]
	if !ok {
		return errors.Annotatef(ErrUnknownTable, "%s", tableName)
	}

	log.Debug("loading tuples", zap.String("table", tableName), zap.Int("count", len(tuples)))

	for _, t := range tuples {
		if len(t) != len(desc.columns) {
			return errors.Errorf("table %s: tuple has %d values, schema has %d columns",
				tableName, len(t), len(desc.columns))
		}

		key := tupleKey(desc, t)
		values := make(map[string][]byte, len(desc.columns))
		for i, col := range desc.columns {
			setField(values, col, t[i])
		}

		if desc.warehouseIdx < 0 {
			// Replicated table: every shard gets a copy.
			for sID, store := range d.router.Stores() {
				if err := d.insert(ctx, store, tableName, key, values); err != nil {
					return errors.Annotatef(err, "load %s into shard %d", tableName, sID)
				}
			}
			continue
		}

		wID, err := warehouseOf(desc, t)
		if err != nil {
			return errors.Annotatef(err, "load %s", tableName)
		}
		sID, err := d.router.Lookup(wID)
		if err != nil {
			return errors.Annotatef(err, "load %s", tableName)
		}
		store, err := d.router.Store(sID)
		if err != nil {
			return errors.Annotatef(err, "load %s into shard %d", tableName, sID)
		}
		if err := d.insert(ctx, store, tableName, key, values); err != nil {
			return errors.Annotatef(err, "load %s into shard %d", tableName, sID)
		}
	}

	log.Debug("loaded tuples", zap.String("table", tableName), zap.Int("count", len(tuples)))
	return nil
}

// LoadFinish is called by the framework once every table has been loaded.
func (d *Driver) LoadFinish(ctx context.Context) error {
	log.Info("finished loading tables")
	return nil
}

// Reset wipes every table on every shard. It backs the dropdata flag.
func (d *Driver) Reset(ctx context.Context) error {
	for sID, store := range d.router.Stores() {
		for _, tableName := range Tables() {
			if err := store.Drop(ctx, tableName); err != nil {
				return errors.Annotatef(err, "drop %s on shard %d", tableName, sID)
			}
		}
	}
	return nil
}

// tupleKey derives the record key from the tuple's primary-key columns, or
// generates a fresh unique key for tables without one (History).
func tupleKey(desc tableDesc, t []interface{}) string {
	if len(desc.keyIdx) == 0 {
		return uuid.New().String()
	}
	parts := make([]interface{}, len(desc.keyIdx))
	for i, idx := range desc.keyIdx {
		parts[i] = t[idx]
	}
	return Key(parts...)
}

// warehouseOf pulls the owning warehouse id out of the tuple at the table's
// warehouse column offset.
func warehouseOf(desc tableDesc, t []interface{}) (int64, error) {
	v := t[desc.warehouseIdx]
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	default:
		return 0, errors.Errorf("warehouse column %s is not an integer: %v",
			desc.columns[desc.warehouseIdx], v)
	}
}
