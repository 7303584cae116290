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

	"github.com/google/uuid"
	"github.com/pingcap/errors"
)

// DoPayment executes one Payment transaction. The customer is addressed by
// home warehouse/district and resolved by id, or by last name taking the
// median match ordered by first name.
func (d *Driver) DoPayment(ctx context.Context, p *PaymentParams) (*PaymentResult, error) {
	ctx, cancel := d.txnContext(ctx)
	defer cancel()

	store, err := d.router.StoreForWarehouse(p.WarehouseID)
	if err != nil {
		return nil, err
	}

	customer, err := d.findCustomer(ctx, store, p.CustomerWID, p.CustomerDID, p.CustomerID, p.CustomerLast, nil)
	if err != nil {
		return nil, err
	}
	cID, err := fieldInt64(customer, "C_ID")
	if err != nil {
		return nil, err
	}

	cBalance, err := fieldFloat64(customer, "C_BALANCE")
	if err != nil {
		return nil, err
	}
	cYTDPayment, err := fieldFloat64(customer, "C_YTD_PAYMENT")
	if err != nil {
		return nil, err
	}
	cPaymentCnt, err := fieldInt64(customer, "C_PAYMENT_CNT")
	if err != nil {
		return nil, err
	}
	cBalance -= p.Amount
	cYTDPayment += p.Amount
	cPaymentCnt++

	warehouseKey := Key(p.WarehouseID)
	warehouse, err := store.Read(ctx, TableWarehouse, warehouseKey, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "read warehouse %d", p.WarehouseID)
	}
	districtKey := Key(p.DistrictID, p.WarehouseID)
	district, err := store.Read(ctx, TableDistrict, districtKey, nil)
	if err != nil {
		return nil, errors.Annotatef(err, "read district %s", districtKey)
	}

	wYTD, err := fieldFloat64(warehouse, "W_YTD")
	if err != nil {
		return nil, err
	}
	upd := map[string][]byte{}
	setField(upd, "W_YTD", wYTD+p.Amount)
	if err := d.update(ctx, store, TableWarehouse, warehouseKey, upd); err != nil {
		return nil, errors.Annotatef(err, "update warehouse %d YTD", p.WarehouseID)
	}

	dYTD, err := fieldFloat64(district, "D_YTD")
	if err != nil {
		return nil, err
	}
	upd = map[string][]byte{}
	setField(upd, "D_YTD", dYTD+p.Amount)
	if err := d.update(ctx, store, TableDistrict, districtKey, upd); err != nil {
		return nil, errors.Annotatef(err, "update district %s YTD", districtKey)
	}

	customerKey := Key(cID, p.CustomerDID, p.CustomerWID)
	custUpd := map[string][]byte{}
	setField(custUpd, "C_BALANCE", cBalance)
	setField(custUpd, "C_YTD_PAYMENT", cYTDPayment)
	setField(custUpd, "C_PAYMENT_CNT", cPaymentCnt)

	if fieldString(customer, "C_CREDIT") == BadCredit {
		// Bad credit buys an audit trail: the payment is prepended to the
		// customer's free-text data, bounded at maxCData.
		audit := strings.Join([]string{
			formatValue(cID), formatValue(p.CustomerDID), formatValue(p.CustomerWID),
			formatValue(p.DistrictID), formatValue(p.WarehouseID), formatValue(p.Amount),
		}, " ")
		cData := audit + "|" + fieldString(customer, "C_DATA")
		if len(cData) > maxCData {
			cData = cData[:maxCData]
		}
		setField(custUpd, "C_DATA", cData)
		customer["C_DATA"] = []byte(cData)
	}

	if err := d.update(ctx, store, TableCustomer, customerKey, custUpd); err != nil {
		return nil, errors.Annotatef(err, "update customer %s", customerKey)
	}
	customer["C_BALANCE"] = custUpd["C_BALANCE"]
	customer["C_YTD_PAYMENT"] = custUpd["C_YTD_PAYMENT"]
	customer["C_PAYMENT_CNT"] = custUpd["C_PAYMENT_CNT"]

	// History is append only, keyed by a fresh unique id.
	hData := fmt.Sprintf("%s    %s", fieldString(warehouse, "W_NAME"), fieldString(district, "D_NAME"))
	history := map[string][]byte{}
	setField(history, "H_C_ID", cID)
	setField(history, "H_C_D_ID", p.CustomerDID)
	setField(history, "H_C_W_ID", p.CustomerWID)
	setField(history, "H_D_ID", p.DistrictID)
	setField(history, "H_W_ID", p.WarehouseID)
	setField(history, "H_DATE", p.Date)
	setField(history, "H_AMOUNT", p.Amount)
	setField(history, "H_DATA", hData)
	if err := d.insert(ctx, store, TableHistory, uuid.New().String(), history); err != nil {
		return nil, errors.Annotate(err, "insert history record")
	}

	return &PaymentResult{
		Warehouse: warehouse,
		District:  district,
		Customer:  customer,
	}, nil
}
