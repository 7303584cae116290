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
	"math"
	"strings"
	"testing"
	"time"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	_ "github.com/kvbench/go-tpcc/db/memory"
	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/shard"
)

func newTestDriver(t *testing.T, warehouses int64) (*Driver, kv.Store) {
	t.Helper()

	creator := kv.GetStoreCreator("memory")
	if creator == nil {
		t.Fatal("memory store is not registered")
	}
	p := properties.NewProperties()
	store, err := creator.Create(p, 0, "shard-0")
	if err != nil {
		t.Fatalf("create memory store: %v", err)
	}
	router := shard.NewRouter([]kv.Store{store}, warehouses, nil)
	return NewDriver(p, router), store
}

func mustLoad(t *testing.T, d *Driver, table string, tuples [][]interface{}) {
	t.Helper()
	if err := d.LoadTuples(context.Background(), table, tuples); err != nil {
		t.Fatalf("load %s: %v", table, err)
	}
}

func stockTuple(iID, wID, quantity int64) []interface{} {
	t := []interface{}{iID, wID, quantity}
	for i := 1; i <= 10; i++ {
		t = append(t, strings.Repeat("d", 24))
	}
	return append(t, int64(0), int64(0), int64(0), "stock data")
}

func customerTuple(cID, dID, wID int64, first, last, credit string, discount, balance float64, data string) []interface{} {
	return []interface{}{
		cID, dID, wID, first, "OE", last,
		"street 1", "street 2", "city", "CA", "123411111",
		"0123456789012345", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), credit, float64(50000), discount,
		balance, float64(10), int64(1), int64(0),
		data,
	}
}

// loadBaseFixture loads one warehouse with district 1, customer 1 and two
// stocked items.
func loadBaseFixture(t *testing.T, d *Driver) {
	t.Helper()

	mustLoad(t, d, TableWarehouse, [][]interface{}{
		{int64(1), "W-ONE", "street 1", "street 2", "city", "CA", "123411111", 0.05, float64(300000)},
	})
	mustLoad(t, d, TableDistrict, [][]interface{}{
		{int64(1), int64(1), "D-ONE", "street 1", "street 2", "city", "CA", "123411111", 0.02, float64(30000), int64(10)},
	})
	mustLoad(t, d, TableCustomer, [][]interface{}{
		customerTuple(1, 1, 1, "Alice", "BARBARBAR", GoodCredit, 0.1, -10, "customer data"),
	})
	mustLoad(t, d, TableItem, [][]interface{}{
		{int64(5), int64(1), "widget", float64(10), "plain item data"},
		{int64(6), int64(1), "sprocket", float64(2), "plain item data"},
	})
	mustLoad(t, d, TableStock, [][]interface{}{
		stockTuple(5, 1, 50),
		stockTuple(6, 1, 12),
	})
}

func readInt(t *testing.T, store kv.Store, table, key, col string) int64 {
	t.Helper()
	values, err := store.Read(context.Background(), table, key, nil)
	if err != nil {
		t.Fatalf("read %s %s: %v", table, key, err)
	}
	n, err := fieldInt64(values, col)
	if err != nil {
		t.Fatalf("read %s %s: %v", table, key, err)
	}
	return n
}

func readFloat(t *testing.T, store kv.Store, table, key, col string) float64 {
	t.Helper()
	values, err := store.Read(context.Background(), table, key, nil)
	if err != nil {
		t.Fatalf("read %s %s: %v", table, key, err)
	}
	f, err := fieldFloat64(values, col)
	if err != nil {
		t.Fatalf("read %s %s: %v", table, key, err)
	}
	return f
}

func TestNewOrder(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	res, err := d.DoNewOrder(ctx, &NewOrderParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerID:  1,
		EntryDate:   time.Now(),
		ItemIDs:     []int64{5},
		SupplyWIDs:  []int64{1},
		Quantities:  []int64{3},
	})
	if err != nil {
		t.Fatalf("new-order: %v", err)
	}
	if res.Aborted {
		t.Fatal("new-order aborted on a valid item")
	}
	if res.OrderID != 10 {
		t.Fatalf("order id = %d, want 10", res.OrderID)
	}
	// 3 * 10.00 with 10% discount, 5% warehouse and 2% district tax.
	if math.Abs(res.Total-28.89) > 1e-6 {
		t.Fatalf("total = %v, want 28.89", res.Total)
	}
	if len(res.Lines) != 1 || res.Lines[0].BrandGeneric != "G" {
		t.Fatalf("unexpected lines %+v", res.Lines)
	}

	if got := readInt(t, store, TableDistrict, Key(1, 1), "D_NEXT_O_ID"); got != 11 {
		t.Fatalf("D_NEXT_O_ID = %d, want 11", got)
	}
	if got := readInt(t, store, TableOrders, Key(10, 1, 1), "O_OL_CNT"); got != 1 {
		t.Fatalf("O_OL_CNT = %d, want 1", got)
	}
	if got := readInt(t, store, TableNewOrder, Key(10, 1, 1), "NO_O_ID"); got != 10 {
		t.Fatalf("NO_O_ID = %d, want 10", got)
	}
	if got := readFloat(t, store, TableOrderLine, Key(10, 1, 1, 1), "OL_AMOUNT"); got != 30 {
		t.Fatalf("OL_AMOUNT = %v, want 30", got)
	}

	// Stock above threshold decrements in place.
	if got := readInt(t, store, TableStock, Key(5, 1), "S_QUANTITY"); got != 47 {
		t.Fatalf("S_QUANTITY = %d, want 47", got)
	}
	if got := readInt(t, store, TableStock, Key(5, 1), "S_YTD"); got != 3 {
		t.Fatalf("S_YTD = %d, want 3", got)
	}
	if got := readInt(t, store, TableStock, Key(5, 1), "S_ORDER_CNT"); got != 1 {
		t.Fatalf("S_ORDER_CNT = %d, want 1", got)
	}
	if got := readInt(t, store, TableStock, Key(5, 1), "S_REMOTE_CNT"); got != 0 {
		t.Fatalf("S_REMOTE_CNT = %d, want 0", got)
	}
}

func TestNewOrderRestock(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	// 12 on hand, 3 ordered: below the quantity+10 threshold, so the shelf
	// is restocked to 12+91-3.
	if _, err := d.DoNewOrder(ctx, &NewOrderParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerID:  1,
		EntryDate:   time.Now(),
		ItemIDs:     []int64{6},
		SupplyWIDs:  []int64{1},
		Quantities:  []int64{3},
	}); err != nil {
		t.Fatalf("new-order: %v", err)
	}
	if got := readInt(t, store, TableStock, Key(6, 1), "S_QUANTITY"); got != 100 {
		t.Fatalf("S_QUANTITY = %d, want 100", got)
	}
}

func TestNewOrderInvalidItemAborts(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	res, err := d.DoNewOrder(ctx, &NewOrderParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerID:  1,
		EntryDate:   time.Now(),
		ItemIDs:     []int64{5, 9999},
		SupplyWIDs:  []int64{1, 1},
		Quantities:  []int64{3, 1},
	})
	if err != nil {
		t.Fatalf("new-order: %v", err)
	}
	if !res.Aborted {
		t.Fatal("expected an aborted result for an unknown item")
	}

	// The abort happens before the first write.
	if got := readInt(t, store, TableDistrict, Key(1, 1), "D_NEXT_O_ID"); got != 10 {
		t.Fatalf("D_NEXT_O_ID = %d, want 10 after abort", got)
	}
	orders, err := store.ScanPrefix(ctx, TableOrders, "", nil)
	if err != nil {
		t.Fatalf("scan orders: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("%d order records written by an aborted new-order", len(orders))
	}
	if got := readInt(t, store, TableStock, Key(5, 1), "S_QUANTITY"); got != 50 {
		t.Fatalf("S_QUANTITY = %d, stock touched by an aborted new-order", got)
	}
}

func TestNewOrderEmptyItems(t *testing.T) {
	d, _ := newTestDriver(t, 1)
	loadBaseFixture(t, d)

	if _, err := d.DoNewOrder(context.Background(), &NewOrderParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerID:  1,
	}); err == nil {
		t.Fatal("expected an error for an empty item list")
	}
}

func TestPayment(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	res, err := d.DoPayment(ctx, &PaymentParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerWID: 1,
		CustomerDID: 1,
		CustomerID:  1,
		Amount:      100.5,
		Date:        time.Now(),
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	customerKey := Key(1, 1, 1)
	if got := readFloat(t, store, TableCustomer, customerKey, "C_BALANCE"); got != -110.5 {
		t.Fatalf("C_BALANCE = %v, want -110.5", got)
	}
	if got := readFloat(t, store, TableCustomer, customerKey, "C_YTD_PAYMENT"); got != 110.5 {
		t.Fatalf("C_YTD_PAYMENT = %v, want 110.5", got)
	}
	if got := readInt(t, store, TableCustomer, customerKey, "C_PAYMENT_CNT"); got != 2 {
		t.Fatalf("C_PAYMENT_CNT = %d, want 2", got)
	}
	if got := readFloat(t, store, TableWarehouse, Key(1), "W_YTD"); got != 300100.5 {
		t.Fatalf("W_YTD = %v, want 300100.5", got)
	}
	if got := readFloat(t, store, TableDistrict, Key(1, 1), "D_YTD"); got != 30100.5 {
		t.Fatalf("D_YTD = %v, want 30100.5", got)
	}

	// The returned customer reflects the update.
	if got, err := fieldFloat64(res.Customer, "C_BALANCE"); err != nil || got != -110.5 {
		t.Fatalf("returned C_BALANCE = %v (%v), want -110.5", got, err)
	}

	history, err := store.ScanPrefix(ctx, TableHistory, "", nil)
	if err != nil {
		t.Fatalf("scan history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("%d history records, want 1", len(history))
	}
	if got := fieldString(history[0].Values, "H_DATA"); got != "W-ONE    D-ONE" {
		t.Fatalf("H_DATA = %q", got)
	}
}

func TestPaymentBadCreditAudit(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	oldData := strings.Repeat("x", 490)
	mustLoad(t, d, TableCustomer, [][]interface{}{
		customerTuple(2, 1, 1, "Bob", "OUGHTOUGHTBAR", BadCredit, 0, 0, oldData),
	})

	if _, err := d.DoPayment(ctx, &PaymentParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerWID: 1,
		CustomerDID: 1,
		CustomerID:  2,
		Amount:      100.5,
		Date:        time.Now(),
	}); err != nil {
		t.Fatalf("payment: %v", err)
	}

	values, err := store.Read(ctx, TableCustomer, Key(2, 1, 1), []string{"C_DATA"})
	if err != nil {
		t.Fatalf("read customer: %v", err)
	}
	cData := fieldString(values, "C_DATA")
	if want := "2 1 1 1 1 100.5|"; !strings.HasPrefix(cData, want) {
		t.Fatalf("C_DATA = %q, want prefix %q", cData[:30], want)
	}
	if len(cData) != 500 {
		t.Fatalf("C_DATA length = %d, want truncation at 500", len(cData))
	}
}

func TestPaymentByLastNameMedian(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	mustLoad(t, d, TableCustomer, [][]interface{}{
		customerTuple(11, 1, 1, "Ccc", "ABLEABLEABLE", GoodCredit, 0, 0, "data"),
		customerTuple(12, 1, 1, "Aaa", "ABLEABLEABLE", GoodCredit, 0, 0, "data"),
		customerTuple(13, 1, 1, "Bbb", "ABLEABLEABLE", GoodCredit, 0, 0, "data"),
	})

	res, err := d.DoPayment(ctx, &PaymentParams{
		WarehouseID:  1,
		DistrictID:   1,
		CustomerWID:  1,
		CustomerDID:  1,
		CustomerLast: "ABLEABLEABLE",
		Amount:       10,
		Date:         time.Now(),
	})
	if err != nil {
		t.Fatalf("payment: %v", err)
	}

	// Ordered by first name the matches are Aaa(12), Bbb(13), Ccc(11); the
	// median of three is the second.
	cID, err := fieldInt64(res.Customer, "C_ID")
	if err != nil || cID != 13 {
		t.Fatalf("paid customer %d (%v), want 13", cID, err)
	}
	if got := readFloat(t, store, TableCustomer, Key(13, 1, 1), "C_BALANCE"); got != -10 {
		t.Fatalf("C_BALANCE = %v, want -10", got)
	}
	if got := readFloat(t, store, TableCustomer, Key(11, 1, 1), "C_BALANCE"); got != 0 {
		t.Fatalf("C_BALANCE of sibling = %v, want 0", got)
	}
}

func TestPaymentUnknownLastName(t *testing.T) {
	d, _ := newTestDriver(t, 1)
	loadBaseFixture(t, d)

	_, err := d.DoPayment(context.Background(), &PaymentParams{
		WarehouseID:  1,
		DistrictID:   1,
		CustomerWID:  1,
		CustomerDID:  1,
		CustomerLast: "NOSUCHNAME",
		Amount:       10,
		Date:         time.Now(),
	})
	if errors.Cause(err) != ErrEmptyResult {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}
}

func TestOrderStatus(t *testing.T) {
	d, _ := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()
	now := time.Now()

	mustLoad(t, d, TableOrders, [][]interface{}{
		{int64(3), int64(1), int64(1), int64(1), now, int64(4), int64(1), true},
		{int64(7), int64(1), int64(1), int64(1), now, NullCarrierID, int64(2), true},
	})
	mustLoad(t, d, TableOrderLine, [][]interface{}{
		{int64(3), int64(1), int64(1), int64(1), int64(5), int64(1), now, int64(1), float64(0), "info"},
		{int64(7), int64(1), int64(1), int64(1), int64(5), int64(1), nil, int64(2), float64(20), "info"},
		{int64(7), int64(1), int64(1), int64(2), int64(6), int64(1), nil, int64(1), float64(2), "info"},
	})

	res, err := d.DoOrderStatus(ctx, &OrderStatusParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerID:  1,
	})
	if err != nil {
		t.Fatalf("order-status: %v", err)
	}
	oID, err := fieldInt64(res.Order, "O_ID")
	if err != nil || oID != 7 {
		t.Fatalf("most recent order %d (%v), want 7", oID, err)
	}
	if len(res.Lines) != 2 {
		t.Fatalf("%d lines, want 2", len(res.Lines))
	}
}

func TestOrderStatusNoOrders(t *testing.T) {
	d, _ := newTestDriver(t, 1)
	loadBaseFixture(t, d)

	_, err := d.DoOrderStatus(context.Background(), &OrderStatusParams{
		WarehouseID: 1,
		DistrictID:  1,
		CustomerID:  1,
	})
	if errors.Cause(err) != ErrEmptyResult {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}
}

func TestDelivery(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()
	now := time.Now()

	mustLoad(t, d, TableOrders, [][]interface{}{
		{int64(10), int64(1), int64(1), int64(1), now, NullCarrierID, int64(2), true},
	})
	mustLoad(t, d, TableNewOrder, [][]interface{}{
		{int64(10), int64(1), int64(1)},
	})
	mustLoad(t, d, TableOrderLine, [][]interface{}{
		{int64(10), int64(1), int64(1), int64(1), int64(5), int64(1), nil, int64(1), 10.5, "info"},
		{int64(10), int64(1), int64(1), int64(2), int64(6), int64(1), nil, int64(2), 4.5, "info"},
	})

	res, err := d.DoDelivery(ctx, &DeliveryParams{
		WarehouseID:  1,
		CarrierID:    7,
		DeliveryDate: now,
	})
	if err != nil {
		t.Fatalf("delivery: %v", err)
	}
	if len(res.Delivered) != 1 || res.Delivered[0] != (DeliveredOrder{DistrictID: 1, OrderID: 10}) {
		t.Fatalf("delivered %+v, want order 10 of district 1", res.Delivered)
	}
	if res.SkippedDistricts != 9 {
		t.Fatalf("skipped %d districts, want 9", res.SkippedDistricts)
	}

	if _, err := store.Read(ctx, TableNewOrder, Key(10, 1, 1), nil); err != kv.ErrNotFound {
		t.Fatalf("new-order record still present: %v", err)
	}
	if got := readInt(t, store, TableOrders, Key(10, 1, 1), "O_CARRIER_ID"); got != 7 {
		t.Fatalf("O_CARRIER_ID = %d, want 7", got)
	}
	line, err := store.Read(ctx, TableOrderLine, Key(10, 1, 1, 1), []string{"OL_DELIVERY_D"})
	if err != nil {
		t.Fatalf("read order line: %v", err)
	}
	if fieldString(line, "OL_DELIVERY_D") == "" {
		t.Fatal("OL_DELIVERY_D not set by delivery")
	}
	// The customer is credited the sum of the line amounts.
	if got := readFloat(t, store, TableCustomer, Key(1, 1, 1), "C_BALANCE"); got != 5 {
		t.Fatalf("C_BALANCE = %v, want 5", got)
	}

	// The queue is drained: running delivery again skips every district.
	res, err = d.DoDelivery(ctx, &DeliveryParams{WarehouseID: 1, CarrierID: 8, DeliveryDate: now})
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if len(res.Delivered) != 0 || res.SkippedDistricts != DistrictsPerWarehouse {
		t.Fatalf("second delivery delivered %+v, skipped %d", res.Delivered, res.SkippedDistricts)
	}
}

func TestDeliveryOldestFirst(t *testing.T) {
	d, _ := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()
	now := time.Now()

	mustLoad(t, d, TableOrders, [][]interface{}{
		{int64(2), int64(1), int64(1), int64(1), now, NullCarrierID, int64(1), true},
		{int64(10), int64(1), int64(1), int64(1), now, NullCarrierID, int64(1), true},
	})
	mustLoad(t, d, TableNewOrder, [][]interface{}{
		{int64(2), int64(1), int64(1)},
		{int64(10), int64(1), int64(1)},
	})
	mustLoad(t, d, TableOrderLine, [][]interface{}{
		{int64(2), int64(1), int64(1), int64(1), int64(5), int64(1), nil, int64(1), float64(10), "info"},
		{int64(10), int64(1), int64(1), int64(1), int64(5), int64(1), nil, int64(1), float64(10), "info"},
	})

	// Order 2 is older than order 10 even though "10" sorts before "2" as a
	// string.
	res, err := d.DoDelivery(ctx, &DeliveryParams{WarehouseID: 1, CarrierID: 1, DeliveryDate: now})
	if err != nil {
		t.Fatalf("delivery: %v", err)
	}
	if len(res.Delivered) != 1 || res.Delivered[0].OrderID != 2 {
		t.Fatalf("delivered %+v, want order 2", res.Delivered)
	}
}

func TestStockLevel(t *testing.T) {
	d, _ := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	mustLoad(t, d, TableOrderLine, [][]interface{}{
		{int64(8), int64(1), int64(1), int64(1), int64(5), int64(1), nil, int64(1), float64(10), "info"},
		{int64(9), int64(1), int64(1), int64(1), int64(5), int64(1), nil, int64(1), float64(10), "info"},
		{int64(9), int64(1), int64(1), int64(2), int64(6), int64(1), nil, int64(1), float64(2), "info"},
		// No stock record for this item; it cannot count as low.
		{int64(9), int64(1), int64(1), int64(3), int64(7), int64(1), nil, int64(1), float64(1), "info"},
	})

	res, err := d.DoStockLevel(ctx, &StockLevelParams{WarehouseID: 1, DistrictID: 1, Threshold: 15})
	if err != nil {
		t.Fatalf("stock-level: %v", err)
	}
	// Distinct items 5, 6, 7: only item 6 (12 on hand) is below 15, and it
	// counts once despite two referencing lines.
	if res.LowStock != 1 {
		t.Fatalf("low stock = %d, want 1", res.LowStock)
	}

	res, err = d.DoStockLevel(ctx, &StockLevelParams{WarehouseID: 1, DistrictID: 1, Threshold: 100})
	if err != nil {
		t.Fatalf("stock-level: %v", err)
	}
	if res.LowStock != 2 {
		t.Fatalf("low stock = %d, want 2", res.LowStock)
	}
}

func TestResetDropsEverything(t *testing.T) {
	d, store := newTestDriver(t, 1)
	loadBaseFixture(t, d)
	ctx := context.Background()

	if err := d.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}
	for _, table := range Tables() {
		recs, err := store.ScanPrefix(ctx, table, "", nil)
		if err != nil {
			t.Fatalf("scan %s: %v", table, err)
		}
		if len(recs) != 0 {
			t.Fatalf("%s still has %d records after reset", table, len(recs))
		}
	}
}
