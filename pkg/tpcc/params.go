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

import "time"

// NewOrderParams carries the inputs of one New-Order transaction. The three
// item slices must be non-empty and of equal length.
type NewOrderParams struct {
	WarehouseID int64
	DistrictID  int64
	CustomerID  int64
	EntryDate   time.Time
	ItemIDs     []int64
	SupplyWIDs  []int64
	Quantities  []int64
}

// NewOrderLine is the per-line display data New-Order hands back.
type NewOrderLine struct {
	ItemName      string
	StockQuantity int64
	BrandGeneric  string
	Price         float64
	Amount        float64
}

// NewOrderResult is the outcome of a New-Order transaction.
//
// Aborted marks the benchmark-mandated rollback taken when an item id does
// not exist (1% of generated orders carry one on purpose). An aborted
// result performed no writes and is not an error.
type NewOrderResult struct {
	Aborted bool

	Customer     map[string][]byte
	WarehouseTax float64
	DistrictTax  float64
	OrderID      int64
	Total        float64
	Lines        []NewOrderLine
}

// PaymentParams carries the inputs of one Payment transaction. Exactly one
// of CustomerID (> 0) or CustomerLast must be set: the customer is resolved
// either directly by id, or by last name taking the median match.
type PaymentParams struct {
	WarehouseID  int64
	DistrictID   int64
	Amount       float64
	CustomerWID  int64
	CustomerDID  int64
	CustomerID   int64
	CustomerLast string
	Date         time.Time
}

// PaymentResult returns the warehouse, district and customer display data.
type PaymentResult struct {
	Warehouse map[string][]byte
	District  map[string][]byte
	Customer  map[string][]byte
}

// OrderStatusParams carries the inputs of one Order-Status transaction.
// Customer resolution follows the same id-or-median-of-last-name rule as
// Payment.
type OrderStatusParams struct {
	WarehouseID  int64
	DistrictID   int64
	CustomerID   int64
	CustomerLast string
}

// OrderStatusResult returns the customer, their most recent order, and that
// order's lines in line-number order (empty when the order has no lines).
type OrderStatusResult struct {
	Customer map[string][]byte
	Order    map[string][]byte
	Lines    []map[string][]byte
}

// DeliveryParams carries the inputs of one Delivery transaction.
type DeliveryParams struct {
	WarehouseID  int64
	CarrierID    int64
	DeliveryDate time.Time
}

// DeliveredOrder names one order completed by a Delivery transaction.
type DeliveredOrder struct {
	DistrictID int64
	OrderID    int64
}

// DeliveryResult lists the orders actually delivered. SkippedDistricts
// counts districts whose new-order queue was empty; the benchmark tolerates
// that only below a 1% rate, so callers need to see it.
type DeliveryResult struct {
	Delivered        []DeliveredOrder
	SkippedDistricts int
}

// StockLevelParams carries the inputs of one Stock-Level transaction.
type StockLevelParams struct {
	WarehouseID int64
	DistrictID  int64
	Threshold   int64
}

// StockLevelResult is the number of distinct recently ordered items whose
// stock quantity sits below the threshold.
type StockLevelResult struct {
	LowStock int64
}
