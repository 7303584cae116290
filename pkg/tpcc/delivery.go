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
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/kvbench/go-tpcc/pkg/kv"
)

// DoDelivery executes one Delivery transaction: for every district of the
// warehouse, deliver the oldest undelivered order, if any. Districts with
// an empty new-order queue are skipped and counted; TPC-C tolerates skips
// only below a 1% rate, so the caller gets the number back.
func (d *Driver) DoDelivery(ctx context.Context, p *DeliveryParams) (*DeliveryResult, error) {
	ctx, cancel := d.txnContext(ctx)
	defer cancel()

	store, err := d.router.StoreForWarehouse(p.WarehouseID)
	if err != nil {
		return nil, err
	}

	res := &DeliveryResult{}
	for dID := int64(1); dID <= DistrictsPerWarehouse; dID++ {
		// Oldest undelivered order: lowest NO_O_ID, compared numerically.
		newOrders, err := d.scanWhere(ctx, store, TableNewOrder, "", nil, map[string]interface{}{
			"NO_D_ID": dID,
			"NO_W_ID": p.WarehouseID,
		})
		if err != nil {
			return nil, err
		}
		if len(newOrders) == 0 {
			res.SkippedDistricts++
			continue
		}

		var noOID int64 = -1
		for _, rec := range newOrders {
			oID, err := fieldInt64(rec.Values, "NO_O_ID")
			if err != nil {
				return nil, err
			}
			if noOID < 0 || oID < noOID {
				noOID = oID
			}
		}

		orderKey := Key(noOID, dID, p.WarehouseID)
		order, err := store.Read(ctx, TableOrders, orderKey, []string{"O_C_ID"})
		if err == kv.ErrNotFound {
			return nil, errors.Annotatef(ErrEmptyResult, "new-order %s has no order record", orderKey)
		}
		if err != nil {
			return nil, errors.Annotatef(err, "read order %s", orderKey)
		}
		cID, err := fieldInt64(order, "O_C_ID")
		if err != nil {
			return nil, err
		}

		linePrefix := keyPrefix(noOID, dID, p.WarehouseID)
		lineRecs, err := store.ScanPrefix(ctx, TableOrderLine, linePrefix, []string{"OL_AMOUNT"})
		if err != nil {
			return nil, errors.Annotatef(err, "scan lines of order %s", orderKey)
		}
		// An order always has lines; an empty sum means the data is broken,
		// not that there was nothing to deliver.
		if len(lineRecs) == 0 {
			return nil, errors.Annotatef(ErrEmptyResult, "order %s has no order lines", orderKey)
		}

		olTotal := float64(0)
		for _, rec := range lineRecs {
			amount, err := fieldFloat64(rec.Values, "OL_AMOUNT")
			if err != nil {
				return nil, err
			}
			olTotal += amount
		}
		if olTotal <= 0 {
			return nil, errors.Annotatef(ErrEmptyResult, "order %s has non-positive line total %f", orderKey, olTotal)
		}

		if err := d.delete(ctx, store, TableNewOrder, orderKey); err != nil {
			return nil, errors.Annotatef(err, "delete new-order %s", orderKey)
		}

		upd := map[string][]byte{}
		setField(upd, "O_CARRIER_ID", p.CarrierID)
		if err := d.update(ctx, store, TableOrders, orderKey, upd); err != nil {
			return nil, errors.Annotatef(err, "assign carrier to order %s", orderKey)
		}

		for _, rec := range lineRecs {
			lineUpd := map[string][]byte{}
			setField(lineUpd, "OL_DELIVERY_D", p.DeliveryDate)
			if err := d.update(ctx, store, TableOrderLine, rec.Key, lineUpd); err != nil {
				return nil, errors.Annotatef(err, "set delivery date on line %s", rec.Key)
			}
		}

		customerKey := Key(cID, dID, p.WarehouseID)
		customer, err := store.Read(ctx, TableCustomer, customerKey, []string{"C_BALANCE"})
		if err != nil {
			return nil, errors.Annotatef(err, "read customer %s", customerKey)
		}
		cBalance, err := fieldFloat64(customer, "C_BALANCE")
		if err != nil {
			return nil, err
		}
		upd = map[string][]byte{}
		setField(upd, "C_BALANCE", cBalance+olTotal)
		if err := d.update(ctx, store, TableCustomer, customerKey, upd); err != nil {
			return nil, errors.Annotatef(err, "credit customer %s", customerKey)
		}

		res.Delivered = append(res.Delivered, DeliveredOrder{DistrictID: dID, OrderID: noOID})
	}

	if res.SkippedDistricts > 0 {
		log.Debug("delivery skipped districts with empty queues",
			zap.Int64("warehouse", p.WarehouseID), zap.Int("skipped", res.SkippedDistricts))
	}
	return res, nil
}
