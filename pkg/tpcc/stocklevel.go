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

	"github.com/kvbench/go-tpcc/pkg/kv"
)

// DoStockLevel executes one Stock-Level transaction: among the distinct
// items referenced by the district's 20 most recent orders, count those
// whose stock quantity at this warehouse is below the threshold.
func (d *Driver) DoStockLevel(ctx context.Context, p *StockLevelParams) (*StockLevelResult, error) {
	ctx, cancel := d.txnContext(ctx)
	defer cancel()

	store, err := d.router.StoreForWarehouse(p.WarehouseID)
	if err != nil {
		return nil, err
	}

	districtKey := Key(p.DistrictID, p.WarehouseID)
	district, err := store.Read(ctx, TableDistrict, districtKey, []string{"D_NEXT_O_ID"})
	if err != nil {
		return nil, errors.Annotatef(err, "read district %s", districtKey)
	}
	nextOID, err := fieldInt64(district, "D_NEXT_O_ID")
	if err != nil {
		return nil, err
	}

	lowOID := nextOID - stockLevelOrders
	if lowOID < 1 {
		lowOID = 1
	}

	itemIDs := make(map[int64]struct{})
	for oID := lowOID; oID < nextOID; oID++ {
		lineRecs, err := store.ScanPrefix(ctx, TableOrderLine, keyPrefix(oID, p.DistrictID, p.WarehouseID),
			[]string{"OL_I_ID"})
		if err != nil {
			return nil, errors.Annotatef(err, "scan lines of order %d", oID)
		}
		for _, rec := range lineRecs {
			iID, err := fieldInt64(rec.Values, "OL_I_ID")
			if err != nil {
				return nil, err
			}
			itemIDs[iID] = struct{}{}
		}
	}

	var lowStock int64
	for iID := range itemIDs {
		stock, err := store.Read(ctx, TableStock, Key(iID, p.WarehouseID), []string{"S_QUANTITY"})
		if err == kv.ErrNotFound {
			continue
		}
		if err != nil {
			return nil, errors.Annotatef(err, "read stock %d:%d", iID, p.WarehouseID)
		}
		quantity, err := fieldInt64(stock, "S_QUANTITY")
		if err != nil {
			return nil, err
		}
		if quantity < p.Threshold {
			lowStock++
		}
	}

	return &StockLevelResult{LowStock: lowStock}, nil
}
