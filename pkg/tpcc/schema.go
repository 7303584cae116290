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
	"github.com/pingcap/errors"
)

// Table names.
const (
	TableWarehouse = "WAREHOUSE"
	TableDistrict  = "DISTRICT"
	TableItem      = "ITEM"
	TableCustomer  = "CUSTOMER"
	TableHistory   = "HISTORY"
	TableStock     = "STOCK"
	TableOrders    = "ORDERS"
	TableNewOrder  = "NEW_ORDER"
	TableOrderLine = "ORDER_LINE"
)

// Benchmark constants.
const (
	DistrictsPerWarehouse = 10
	NullCarrierID         = int64(0)

	// originalString is the marker the brand/generic rule looks for in
	// item and stock descriptive data.
	originalString = "ORIGINAL"

	BadCredit  = "BC"
	GoodCredit = "GC"

	// maxCData bounds the customer free-text field after the bad-credit
	// audit string is prepended.
	maxCData = 500

	// stockLevelOrders is how many recent orders Stock-Level inspects.
	stockLevelOrders = 20
)

// ErrUnknownTable is returned for any table name outside the benchmark schema.
var ErrUnknownTable = errors.New("tpcc: unknown table")

// tableDesc describes how one table's tuples map onto keyed records:
// the declared column order, which column positions form the primary key,
// and which column carries the owning warehouse id. warehouseIdx is -1 for
// ITEM, which has no warehouse column and is replicated to every shard.
type tableDesc struct {
	columns      []string
	keyIdx       []int
	warehouseIdx int
}

var tables = map[string]tableDesc{
	TableWarehouse: {
		columns: []string{
			"W_ID", "W_NAME", "W_STREET_1", "W_STREET_2", "W_CITY",
			"W_STATE", "W_ZIP", "W_TAX", "W_YTD",
		},
		keyIdx:       []int{0},
		warehouseIdx: 0,
	},
	TableDistrict: {
		columns: []string{
			"D_ID", "D_W_ID", "D_NAME", "D_STREET_1", "D_STREET_2",
			"D_CITY", "D_STATE", "D_ZIP", "D_TAX", "D_YTD", "D_NEXT_O_ID",
		},
		keyIdx:       []int{0, 1},
		warehouseIdx: 1,
	},
	TableItem: {
		columns:      []string{"I_ID", "I_IM_ID", "I_NAME", "I_PRICE", "I_DATA"},
		keyIdx:       []int{0},
		warehouseIdx: -1,
	},
	TableCustomer: {
		columns: []string{
			"C_ID", "C_D_ID", "C_W_ID", "C_FIRST", "C_MIDDLE", "C_LAST",
			"C_STREET_1", "C_STREET_2", "C_CITY", "C_STATE", "C_ZIP",
			"C_PHONE", "C_SINCE", "C_CREDIT", "C_CREDIT_LIM", "C_DISCOUNT",
			"C_BALANCE", "C_YTD_PAYMENT", "C_PAYMENT_CNT", "C_DELIVERY_CNT",
			"C_DATA",
		},
		keyIdx:       []int{0, 1, 2},
		warehouseIdx: 2,
	},
	TableHistory: {
		columns: []string{
			"H_C_ID", "H_C_D_ID", "H_C_W_ID", "H_D_ID", "H_W_ID",
			"H_DATE", "H_AMOUNT", "H_DATA",
		},
		// History records get a synthetic unique key.
		keyIdx:       nil,
		warehouseIdx: 4,
	},
	TableStock: {
		columns: []string{
			"S_I_ID", "S_W_ID", "S_QUANTITY",
			"S_DIST_01", "S_DIST_02", "S_DIST_03", "S_DIST_04", "S_DIST_05",
			"S_DIST_06", "S_DIST_07", "S_DIST_08", "S_DIST_09", "S_DIST_10",
			"S_YTD", "S_ORDER_CNT", "S_REMOTE_CNT", "S_DATA",
		},
		keyIdx:       []int{0, 1},
		warehouseIdx: 1,
	},
	TableOrders: {
		columns: []string{
			"O_ID", "O_C_ID", "O_D_ID", "O_W_ID", "O_ENTRY_D",
			"O_CARRIER_ID", "O_OL_CNT", "O_ALL_LOCAL",
		},
		keyIdx:       []int{0, 2, 3},
		warehouseIdx: 3,
	},
	TableNewOrder: {
		columns:      []string{"NO_O_ID", "NO_D_ID", "NO_W_ID"},
		keyIdx:       []int{0, 1, 2},
		warehouseIdx: 2,
	},
	TableOrderLine: {
		columns: []string{
			"OL_O_ID", "OL_D_ID", "OL_W_ID", "OL_NUMBER", "OL_I_ID",
			"OL_SUPPLY_W_ID", "OL_DELIVERY_D", "OL_QUANTITY", "OL_AMOUNT",
			"OL_DIST_INFO",
		},
		keyIdx:       []int{0, 1, 2, 3},
		warehouseIdx: 2,
	},
}

// ColumnsOf returns the declared column order of a table.
func ColumnsOf(tableName string) ([]string, error) {
	desc, ok := tables[tableName]
	if !ok {
		return nil, errors.Annotatef(ErrUnknownTable, "%s", tableName)
	}
	return desc.columns, nil
}

// Tables returns the names of every table in the benchmark schema.
func Tables() []string {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	return names
}
