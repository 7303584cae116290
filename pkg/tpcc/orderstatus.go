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

	"github.com/pingcap/errors"
)

// DoOrderStatus executes one Order-Status transaction: resolve the customer
// (by id or median last-name match), fetch their most recent order, and
// fetch that order's lines.
func (d *Driver) DoOrderStatus(ctx context.Context, p *OrderStatusParams) (*OrderStatusResult, error) {
	ctx, cancel := d.txnContext(ctx)
	defer cancel()

	store, err := d.router.StoreForWarehouse(p.WarehouseID)
	if err != nil {
		return nil, err
	}

	customer, err := d.findCustomer(ctx, store, p.WarehouseID, p.DistrictID, p.CustomerID, p.CustomerLast, nil)
	if err != nil {
		return nil, err
	}
	cID, err := fieldInt64(customer, "C_ID")
	if err != nil {
		return nil, err
	}

	// Most recent order: highest O_ID, compared numerically.
	orders, err := d.scanWhere(ctx, store, TableOrders, "", nil, map[string]interface{}{
		"O_W_ID": p.WarehouseID,
		"O_D_ID": p.DistrictID,
		"O_C_ID": cID,
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, errors.Annotatef(ErrEmptyResult, "customer %d has no orders", cID)
	}

	var order map[string][]byte
	var lastOID int64 = -1
	for _, rec := range orders {
		oID, err := fieldInt64(rec.Values, "O_ID")
		if err != nil {
			return nil, err
		}
		if oID > lastOID {
			lastOID = oID
			order = rec.Values
		}
	}

	lineRecs, err := store.ScanPrefix(ctx, TableOrderLine, keyPrefix(lastOID, p.DistrictID, p.WarehouseID),
		[]string{"OL_SUPPLY_W_ID", "OL_I_ID", "OL_QUANTITY", "OL_AMOUNT", "OL_DELIVERY_D"})
	if err != nil {
		return nil, errors.Annotatef(err, "scan lines of order %d", lastOID)
	}

	lines := make([]map[string][]byte, 0, len(lineRecs))
	for _, rec := range lineRecs {
		lines = append(lines, rec.Values)
	}

	return &OrderStatusResult{
		Customer: customer,
		Order:    order,
		Lines:    lines,
	}, nil
}
