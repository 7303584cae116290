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
	"sort"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/prop"
	"github.com/kvbench/go-tpcc/pkg/shard"
)

var (
	// ErrInvalidItem marks a New-Order referencing a nonexistent item. It is
	// recovered inside DoNewOrder and surfaced as an aborted result, never
	// returned to callers.
	ErrInvalidItem = errors.New("tpcc: invalid item id")

	// ErrEmptyResult marks an aggregate that must be non-empty coming back
	// empty, which means the data or the driver is wrong. It fails the one
	// transaction, not the process.
	ErrEmptyResult = errors.New("tpcc: required result set is empty")
)

// Driver executes the five TPC-C transactions and the bulk load against the
// shards behind a Router.
type Driver struct {
	router *shard.Router

	retryLimit    uint64
	retryInterval time.Duration
	txnTimeout    time.Duration
}

// NewDriver creates a Driver over the given router, reading retry and
// timeout settings from p.
func NewDriver(p *properties.Properties, router *shard.Router) *Driver {
	return &Driver{
		router:        router,
		retryLimit:    uint64(p.GetInt64(prop.RetryLimit, prop.RetryLimitDefault)),
		retryInterval: time.Duration(p.GetInt64(prop.RetryInterval, prop.RetryIntervalDefault)) * time.Millisecond,
		txnTimeout:    time.Duration(p.GetInt64(prop.TxnTimeout, prop.TxnTimeoutDefault)) * time.Millisecond,
	}
}

// Router returns the router the driver was built with.
func (d *Driver) Router() *shard.Router {
	return d.router
}

func (d *Driver) txnContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.txnTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d.txnTimeout)
}

// retry runs op, retrying transient failures with exponential backoff up to
// retry.limit attempts. With the limit at 0 op runs exactly once.
func (d *Driver) retry(ctx context.Context, op func() error) error {
	if d.retryLimit == 0 {
		return op()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.retryInterval
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, d.retryLimit), ctx))
}

func (d *Driver) insert(ctx context.Context, store kv.Store, table, key string, values map[string][]byte) error {
	return d.retry(ctx, func() error {
		return store.Insert(ctx, table, key, values)
	})
}

func (d *Driver) update(ctx context.Context, store kv.Store, table, key string, values map[string][]byte) error {
	return d.retry(ctx, func() error {
		return store.Update(ctx, table, key, values)
	})
}

func (d *Driver) delete(ctx context.Context, store kv.Store, table, key string) error {
	return d.retry(ctx, func() error {
		return store.Delete(ctx, table, key)
	})
}

// fieldString returns the named column as a string, "" when absent.
func fieldString(values map[string][]byte, col string) string {
	return string(values[col])
}

func fieldInt64(values map[string][]byte, col string) (int64, error) {
	v, ok := values[col]
	if !ok || len(v) == 0 {
		return 0, errors.Errorf("column %s missing or empty", col)
	}
	n, err := strconv.ParseInt(string(v), 10, 64)
	if err != nil {
		return 0, errors.Annotatef(err, "column %s", col)
	}
	return n, nil
}

func fieldFloat64(values map[string][]byte, col string) (float64, error) {
	v, ok := values[col]
	if !ok || len(v) == 0 {
		return 0, errors.Errorf("column %s missing or empty", col)
	}
	f, err := strconv.ParseFloat(string(v), 64)
	if err != nil {
		return 0, errors.Annotatef(err, "column %s", col)
	}
	return f, nil
}

func setField(values map[string][]byte, col string, v interface{}) {
	values[col] = []byte(formatValue(v))
}

// matchEq reports whether every given column of the record equals the
// wanted value in its stored string form.
func matchEq(values map[string][]byte, eq map[string]string) bool {
	for col, want := range eq {
		if string(values[col]) != want {
			return false
		}
	}
	return true
}

// scanWhere range-scans a table under prefix and keeps the records whose
// columns equal the given values. This is the only filtering primitive the
// driver has; there is no query engine below it.
func (d *Driver) scanWhere(ctx context.Context, store kv.Store, table, prefix string, fields []string, where map[string]interface{}) ([]kv.Record, error) {
	eq := make(map[string]string, len(where))
	scanFields := fields
	if len(fields) > 0 {
		scanFields = make([]string, 0, len(fields)+len(where))
		scanFields = append(scanFields, fields...)
	}
	for col, v := range where {
		eq[col] = formatValue(v)
		if scanFields != nil {
			scanFields = append(scanFields, col)
		}
	}

	recs, err := store.ScanPrefix(ctx, table, prefix, scanFields)
	if err != nil {
		return nil, errors.Annotatef(err, "scan %s", table)
	}

	matched := recs[:0]
	for _, rec := range recs {
		if matchEq(rec.Values, eq) {
			matched = append(matched, rec)
		}
	}
	return matched, nil
}

// findCustomer resolves a customer by id, or by last name when id is 0. The
// last-name path orders matches by first name and takes the one at index
// (count-1)/2, the benchmark-specified median tie-break.
func (d *Driver) findCustomer(ctx context.Context, store kv.Store, wID, dID, cID int64, cLast string, fields []string) (map[string][]byte, error) {
	if cID > 0 {
		values, err := store.Read(ctx, TableCustomer, Key(cID, dID, wID), fields)
		if err == kv.ErrNotFound {
			return nil, errors.Annotatef(ErrEmptyResult, "customer %d:%d:%d", cID, dID, wID)
		}
		return values, errors.Annotatef(err, "read customer %d:%d:%d", cID, dID, wID)
	}

	matches, err := d.scanWhere(ctx, store, TableCustomer, "", fields, map[string]interface{}{
		"C_W_ID": wID,
		"C_D_ID": dID,
		"C_LAST": cLast,
	})
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, errors.Annotatef(ErrEmptyResult, "no customer with last name %q in %d:%d", cLast, wID, dID)
	}

	sort.Slice(matches, func(i, j int) bool {
		return fieldString(matches[i].Values, "C_FIRST") < fieldString(matches[j].Values, "C_FIRST")
	})
	return matches[(len(matches)-1)/2].Values, nil
}
