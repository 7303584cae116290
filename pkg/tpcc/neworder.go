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
	"fmt"
	"strings"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/kvbench/go-tpcc/pkg/kv"
)

// DoNewOrder executes one New-Order transaction.
//
// When any item id does not exist the transaction aborts before the first
// write and returns a result with Aborted set; the benchmark generates such
// orders on purpose at a 1% rate, so the abort is an outcome, not an error.
func (d *Driver) DoNewOrder(ctx context.Context, p *NewOrderParams) (*NewOrderResult, error) {
	if len(p.ItemIDs) == 0 {
		return nil, errors.New("new-order: empty item list")
	}
	if len(p.ItemIDs) != len(p.SupplyWIDs) || len(p.ItemIDs) != len(p.Quantities) {
		return nil, errors.Errorf("new-order: item slices differ in length: %d/%d/%d",
			len(p.ItemIDs), len(p.SupplyWIDs), len(p.Quantities))
	}

	ctx, cancel := d.txnContext(ctx)
	defer cancel()

	store, err := d.router.StoreForWarehouse(p.WarehouseID)
	if err != nil {
		return nil, err
	}

	// All item lookups come first: a single invalid id aborts the whole
	// order with no writes performed.
	allLocal := true
	items := make([]map[string][]byte, len(p.ItemIDs))
	for i, iID := range p.ItemIDs {
		if p.SupplyWIDs[i] != p.WarehouseID {
			allLocal = false
		}
		values, err := store.Read(ctx, TableItem, Key(iID), []string{"I_PRICE", "I_NAME", "I_DATA"})
		if err == kv.ErrNotFound || (err == nil && len(values) == 0) {
			return &NewOrderResult{Aborted: true}, nil
		}
		if err != nil {
			return nil, errors.Annotatef(err, "read item %d", iID)
		}
		items[i] = values
	}

	warehouse, err := store.Read(ctx, TableWarehouse, Key(p.WarehouseID), []string{"W_TAX"})
	if err != nil {
		return nil, errors.Annotatef(err, "read warehouse %d", p.WarehouseID)
	}
	wTax, err := fieldFloat64(warehouse, "W_TAX")
	if err != nil {
		return nil, err
	}

	districtKey := Key(p.DistrictID, p.WarehouseID)
	district, err := store.Read(ctx, TableDistrict, districtKey, []string{"D_TAX", "D_NEXT_O_ID"})
	if err != nil {
		return nil, errors.Annotatef(err, "read district %s", districtKey)
	}
	dTax, err := fieldFloat64(district, "D_TAX")
	if err != nil {
		return nil, err
	}
	dNextOID, err := fieldInt64(district, "D_NEXT_O_ID")
	if err != nil {
		return nil, err
	}

	customer, err := store.Read(ctx, TableCustomer, Key(p.CustomerID, p.DistrictID, p.WarehouseID),
		[]string{"C_DISCOUNT", "C_LAST", "C_CREDIT"})
	if err != nil {
		return nil, errors.Annotatef(err, "read customer %d", p.CustomerID)
	}
	cDiscount, err := fieldFloat64(customer, "C_DISCOUNT")
	if err != nil {
		return nil, err
	}

	// Write phase. The counter bump commits the order id; everything after
	// hangs records off it.
	upd := map[string][]byte{}
	setField(upd, "D_NEXT_O_ID", dNextOID+1)
	if err := d.update(ctx, store, TableDistrict, districtKey, upd); err != nil {
		return nil, errors.Annotatef(err, "increment next order id of district %s", districtKey)
	}

	orderKey := Key(dNextOID, p.DistrictID, p.WarehouseID)
	order := map[string][]byte{}
	setField(order, "O_ID", dNextOID)
	setField(order, "O_C_ID", p.CustomerID)
	setField(order, "O_D_ID", p.DistrictID)
	setField(order, "O_W_ID", p.WarehouseID)
	setField(order, "O_ENTRY_D", p.EntryDate)
	setField(order, "O_CARRIER_ID", NullCarrierID)
	setField(order, "O_OL_CNT", int64(len(p.ItemIDs)))
	setField(order, "O_ALL_LOCAL", allLocal)
	if err := d.insert(ctx, store, TableOrders, orderKey, order); err != nil {
		return nil, errors.Annotatef(err, "create order %s", orderKey)
	}

	newOrder := map[string][]byte{}
	setField(newOrder, "NO_O_ID", dNextOID)
	setField(newOrder, "NO_D_ID", p.DistrictID)
	setField(newOrder, "NO_W_ID", p.WarehouseID)
	if err := d.insert(ctx, store, TableNewOrder, orderKey, newOrder); err != nil {
		return nil, errors.Annotatef(err, "create new-order %s", orderKey)
	}

	distCol := fmt.Sprintf("S_DIST_%02d", p.DistrictID)
	total := float64(0)
	lines := make([]NewOrderLine, 0, len(p.ItemIDs))

	for i := range p.ItemIDs {
		olNumber := int64(i + 1)
		olIID := p.ItemIDs[i]
		olSupplyWID := p.SupplyWIDs[i]
		olQuantity := p.Quantities[i]

		iPrice, err := fieldFloat64(items[i], "I_PRICE")
		if err != nil {
			return nil, err
		}
		iName := fieldString(items[i], "I_NAME")
		iData := fieldString(items[i], "I_DATA")

		stockKey := Key(olIID, olSupplyWID)
		stock, err := store.Read(ctx, TableStock, stockKey,
			[]string{"S_QUANTITY", "S_DATA", "S_YTD", "S_ORDER_CNT", "S_REMOTE_CNT", distCol})
		if err == kv.ErrNotFound {
			log.Warn("no stock record for order line",
				zap.Int64("item", olIID), zap.Int64("supply_warehouse", olSupplyWID))
			continue
		}
		if err != nil {
			return nil, errors.Annotatef(err, "read stock %s", stockKey)
		}

		sQuantity, err := fieldInt64(stock, "S_QUANTITY")
		if err != nil {
			return nil, err
		}
		sYTD, err := fieldInt64(stock, "S_YTD")
		if err != nil {
			return nil, err
		}
		sOrderCnt, err := fieldInt64(stock, "S_ORDER_CNT")
		if err != nil {
			return nil, err
		}
		sRemoteCnt, err := fieldInt64(stock, "S_REMOTE_CNT")
		if err != nil {
			return nil, err
		}
		sData := fieldString(stock, "S_DATA")
		sDistInfo := fieldString(stock, distCol)

		// Restock rule.
		sYTD += olQuantity
		if sQuantity >= olQuantity+10 {
			sQuantity -= olQuantity
		} else {
			sQuantity = sQuantity + 91 - olQuantity
		}
		sOrderCnt++
		if olSupplyWID != p.WarehouseID {
			sRemoteCnt++
		}

		stockUpd := map[string][]byte{}
		setField(stockUpd, "S_QUANTITY", sQuantity)
		setField(stockUpd, "S_YTD", sYTD)
		setField(stockUpd, "S_ORDER_CNT", sOrderCnt)
		setField(stockUpd, "S_REMOTE_CNT", sRemoteCnt)
		if err := d.update(ctx, store, TableStock, stockKey, stockUpd); err != nil {
			return nil, errors.Annotatef(err, "update stock %s", stockKey)
		}

		brandGeneric := "G"
		if strings.Contains(iData, originalString) && strings.Contains(sData, originalString) {
			brandGeneric = "B"
		}

		olAmount := float64(olQuantity) * iPrice
		total += olAmount

		lineKey := Key(dNextOID, p.DistrictID, p.WarehouseID, olNumber)
		line := map[string][]byte{}
		setField(line, "OL_O_ID", dNextOID)
		setField(line, "OL_D_ID", p.DistrictID)
		setField(line, "OL_W_ID", p.WarehouseID)
		setField(line, "OL_NUMBER", olNumber)
		setField(line, "OL_I_ID", olIID)
		setField(line, "OL_SUPPLY_W_ID", olSupplyWID)
		setField(line, "OL_DELIVERY_D", nil)
		setField(line, "OL_QUANTITY", olQuantity)
		setField(line, "OL_AMOUNT", olAmount)
		setField(line, "OL_DIST_INFO", sDistInfo)
		if err := d.insert(ctx, store, TableOrderLine, lineKey, line); err != nil {
			return nil, errors.Annotatef(err, "create order line %s", lineKey)
		}

		lines = append(lines, NewOrderLine{
			ItemName:      iName,
			StockQuantity: sQuantity,
			BrandGeneric:  brandGeneric,
			Price:         iPrice,
			Amount:        olAmount,
		})
	}

	// Discount and tax adjustment, TPC-C 2.4.3.5.
	total *= (1 - cDiscount) * (1 + wTax + dTax)

	return &NewOrderResult{
		Customer:     customer,
		WarehouseTax: wTax,
		DistrictTax:  dTax,
		OrderID:      dNextOID,
		Total:        total,
		Lines:        lines,
	}, nil
}
