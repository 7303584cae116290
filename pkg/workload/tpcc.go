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

// Package workload synthesizes TPC-C data for the bulk load and draws
// transaction parameter sets from the standard mix.
package workload

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"

	"github.com/kvbench/go-tpcc/pkg/generator"
	"github.com/kvbench/go-tpcc/pkg/prop"
	"github.com/kvbench/go-tpcc/pkg/tpcc"
	"github.com/kvbench/go-tpcc/pkg/util"
)

type contextKey string

const stateKey = contextKey("tpcc")

type tpccState struct {
	r *rand.Rand

	customerID *generator.NURand
	itemID     *generator.NURand
	lastName   *generator.NURand
}

type transactionType int64

const (
	txNewOrder transactionType = iota + 1
	txPayment
	txOrderStatus
	txDelivery
	txStockLevel
)

// loadBatchSize is how many tuples go to the driver per LoadTuples call.
const loadBatchSize = 500

// Workload generates TPC-C data and transactions scaled by the tpcc.*
// properties.
type Workload struct {
	p *properties.Properties

	warehouses           int64
	items                int64
	customersPerDistrict int64
	initialOrders        int64

	txChooser *generator.Discrete
}

// NewWorkload creates the workload from the given properties.
func NewWorkload(p *properties.Properties) (*Workload, error) {
	w := &Workload{
		p:                    p,
		warehouses:           p.GetInt64(prop.Warehouses, prop.WarehousesDefault),
		items:                p.GetInt64(prop.ItemCount, prop.ItemCountDefault),
		customersPerDistrict: p.GetInt64(prop.CustomersPerDistrict, prop.CustomersPerDistrictDefault),
		initialOrders:        p.GetInt64(prop.InitialOrdersPerCustomer, prop.InitialOrdersPerCustomerDefault),
	}
	if w.warehouses < 1 {
		return nil, errors.Errorf("workload needs at least one warehouse, got %d", w.warehouses)
	}

	chooser := generator.NewDiscrete()
	chooser.Add(p.GetFloat64(prop.NewOrderProportion, prop.NewOrderProportionDefault), int64(txNewOrder))
	chooser.Add(p.GetFloat64(prop.PaymentProportion, prop.PaymentProportionDefault), int64(txPayment))
	chooser.Add(p.GetFloat64(prop.OrderStatusProportion, prop.OrderStatusProportionDefault), int64(txOrderStatus))
	chooser.Add(p.GetFloat64(prop.DeliveryProportion, prop.DeliveryProportionDefault), int64(txDelivery))
	chooser.Add(p.GetFloat64(prop.StockLevelProportion, prop.StockLevelProportionDefault), int64(txStockLevel))
	w.txChooser = chooser

	return w, nil
}

// InitThread hangs the goroutine-local random state on the context.
func (w *Workload) InitThread(ctx context.Context, threadID int, _ int) context.Context {
	r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(threadID)))
	lastNameMax := int64(999)
	if w.customersPerDistrict-1 < lastNameMax {
		lastNameMax = w.customersPerDistrict - 1
	}
	s := &tpccState{
		r:          r,
		customerID: generator.NewNURand(1023, 1, w.customersPerDistrict, r),
		itemID:     generator.NewNURand(8191, 1, w.items, r),
		lastName:   generator.NewNURand(255, 0, lastNameMax, r),
	}
	return context.WithValue(ctx, stateKey, s)
}

// CleanupThread implements the worker cleanup hook.
func (w *Workload) CleanupThread(_ context.Context) {
}

// syllables composes customer last names per TPC-C clause 4.3.2.3.
var syllables = []string{"BAR", "OUGHT", "ABLE", "PRI", "PRES", "ESE", "ANTI", "CALLY", "ATION", "EING"}

func lastNameOf(num int64) string {
	return syllables[num/100] + syllables[num/10%10] + syllables[num%10]
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}

func randZip(r *rand.Rand) string {
	digits := []byte("0123456789")
	b := make([]byte, 4)
	for i := range b {
		b[i] = digits[r.Intn(len(digits))]
	}
	return string(b) + "11111"
}

func randData(r *rand.Rand) string {
	data := util.RandLetters(r, 26, 50)
	// One record in ten carries the brand marker.
	if r.Intn(10) == 0 {
		pos := r.Intn(len(data) - len("ORIGINAL"))
		data = data[:pos] + "ORIGINAL" + data[pos+len("ORIGINAL"):]
	}
	return data
}

// Load generates and loads every table through the executor, shard by
// shard via the driver's own routing. It honors the dropdata flag first.
func (w *Workload) Load(ctx context.Context, exec tpcc.Executor) error {
	if w.p.GetBool(prop.DropData, prop.DropDataDefault) {
		if err := exec.Reset(ctx); err != nil {
			return err
		}
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	if err := w.loadItems(ctx, exec, r); err != nil {
		return err
	}
	for wID := int64(1); wID <= w.warehouses; wID++ {
		if err := w.loadWarehouse(ctx, exec, r, wID); err != nil {
			return errors.Annotatef(err, "load warehouse %d", wID)
		}
	}
	return exec.LoadFinish(ctx)
}

// LoadPartition loads the warehouses assigned to one worker thread by
// round-robin over the warehouse ids. Thread 0 loads ITEM as well. The
// caller resets the data beforehand and calls LoadFinish once every
// partition is in. Requires a context prepared by InitThread.
func (w *Workload) LoadPartition(ctx context.Context, exec tpcc.Executor, threadID, threadCount int) error {
	s := ctx.Value(stateKey).(*tpccState)

	if threadID == 0 {
		if err := w.loadItems(ctx, exec, s.r); err != nil {
			return errors.Annotate(err, "load items")
		}
	}
	for wID := int64(threadID) + 1; wID <= w.warehouses; wID += int64(threadCount) {
		if err := w.loadWarehouse(ctx, exec, s.r, wID); err != nil {
			return errors.Annotatef(err, "load warehouse %d", wID)
		}
	}
	return nil
}

func flush(ctx context.Context, exec tpcc.Executor, table string, tuples *[][]interface{}, force bool) error {
	if len(*tuples) == 0 || (!force && len(*tuples) < loadBatchSize) {
		return nil
	}
	if err := exec.LoadTuples(ctx, table, *tuples); err != nil {
		return err
	}
	*tuples = (*tuples)[:0]
	return nil
}

func (w *Workload) loadItems(ctx context.Context, exec tpcc.Executor, r *rand.Rand) error {
	var tuples [][]interface{}
	for iID := int64(1); iID <= w.items; iID++ {
		tuples = append(tuples, []interface{}{
			iID,
			r.Int63n(10000) + 1,
			util.RandLetters(r, 14, 24),
			round2(1 + r.Float64()*99),
			randData(r),
		})
		if err := flush(ctx, exec, tpcc.TableItem, &tuples, false); err != nil {
			return err
		}
	}
	return flush(ctx, exec, tpcc.TableItem, &tuples, true)
}

func (w *Workload) loadWarehouse(ctx context.Context, exec tpcc.Executor, r *rand.Rand, wID int64) error {
	now := time.Now()

	warehouse := [][]interface{}{{
		wID,
		util.RandLetters(r, 6, 10),
		util.RandLetters(r, 10, 20),
		util.RandLetters(r, 10, 20),
		util.RandLetters(r, 10, 20),
		util.RandLetters(r, 2, 2),
		randZip(r),
		round2(r.Float64() * 0.2),
		float64(300000),
	}}
	if err := exec.LoadTuples(ctx, tpcc.TableWarehouse, warehouse); err != nil {
		return err
	}

	var stock [][]interface{}
	for iID := int64(1); iID <= w.items; iID++ {
		t := []interface{}{iID, wID, r.Int63n(91) + 10}
		for i := 0; i < 10; i++ {
			t = append(t, util.RandLetters(r, 24, 24))
		}
		t = append(t, int64(0), int64(0), int64(0), randData(r))
		stock = append(stock, t)
		if err := flush(ctx, exec, tpcc.TableStock, &stock, false); err != nil {
			return err
		}
	}
	if err := flush(ctx, exec, tpcc.TableStock, &stock, true); err != nil {
		return err
	}

	for dID := int64(1); dID <= tpcc.DistrictsPerWarehouse; dID++ {
		if err := w.loadDistrict(ctx, exec, r, wID, dID, now); err != nil {
			return errors.Annotatef(err, "district %d", dID)
		}
	}
	return nil
}

func (w *Workload) loadDistrict(ctx context.Context, exec tpcc.Executor, r *rand.Rand, wID, dID int64, now time.Time) error {
	orderCount := w.customersPerDistrict * w.initialOrders

	district := [][]interface{}{{
		dID, wID,
		util.RandLetters(r, 6, 10),
		util.RandLetters(r, 10, 20),
		util.RandLetters(r, 10, 20),
		util.RandLetters(r, 10, 20),
		util.RandLetters(r, 2, 2),
		randZip(r),
		round2(r.Float64() * 0.2),
		float64(30000),
		orderCount + 1,
	}}
	if err := exec.LoadTuples(ctx, tpcc.TableDistrict, district); err != nil {
		return err
	}

	var customers, history [][]interface{}
	for cID := int64(1); cID <= w.customersPerDistrict; cID++ {
		credit := tpcc.GoodCredit
		// One customer in ten has bad credit.
		if r.Intn(10) == 0 {
			credit = tpcc.BadCredit
		}
		customers = append(customers, []interface{}{
			cID, dID, wID,
			util.RandLetters(r, 8, 16),
			"OE",
			lastNameOf((cID - 1) % 1000),
			util.RandLetters(r, 10, 20),
			util.RandLetters(r, 10, 20),
			util.RandLetters(r, 10, 20),
			util.RandLetters(r, 2, 2),
			randZip(r),
			util.RandLetters(r, 16, 16),
			now,
			credit,
			float64(50000),
			round2(r.Float64() * 0.5),
			float64(-10),
			float64(10),
			int64(1),
			int64(0),
			util.RandLetters(r, 300, 500),
		})
		history = append(history, []interface{}{
			cID, dID, wID, dID, wID, now, float64(10), util.RandLetters(r, 12, 24),
		})
		if err := flush(ctx, exec, tpcc.TableCustomer, &customers, false); err != nil {
			return err
		}
		if err := flush(ctx, exec, tpcc.TableHistory, &history, false); err != nil {
			return err
		}
	}
	if err := flush(ctx, exec, tpcc.TableCustomer, &customers, true); err != nil {
		return err
	}
	if err := flush(ctx, exec, tpcc.TableHistory, &history, true); err != nil {
		return err
	}

	// The newest 30% of the initial orders stay undelivered so Delivery and
	// Stock-Level have a queue to work with, at least one per district at
	// small scale factors.
	undelivered := orderCount * 3 / 10
	if undelivered == 0 && orderCount > 0 {
		undelivered = 1
	}
	undeliveredFrom := orderCount - undelivered + 1

	var orders, newOrders, orderLines [][]interface{}
	for oID := int64(1); oID <= orderCount; oID++ {
		cID := (oID-1)%w.customersPerDistrict + 1
		olCnt := r.Int63n(11) + 5
		delivered := oID < undeliveredFrom

		carrierID := tpcc.NullCarrierID
		if delivered {
			carrierID = r.Int63n(10) + 1
		}
		orders = append(orders, []interface{}{
			oID, cID, dID, wID, now, carrierID, olCnt, true,
		})
		if !delivered {
			newOrders = append(newOrders, []interface{}{oID, dID, wID})
		}

		for olNumber := int64(1); olNumber <= olCnt; olNumber++ {
			// Delivered lines were already paid for, so their amount is zero;
			// pending lines carry the amount Delivery will credit.
			var deliveryDate interface{}
			amount := float64(0)
			if delivered {
				deliveryDate = now
			} else {
				amount = round2(0.01 + r.Float64()*9999.98)
			}
			orderLines = append(orderLines, []interface{}{
				oID, dID, wID, olNumber,
				r.Int63n(w.items) + 1,
				wID,
				deliveryDate,
				int64(5),
				amount,
				util.RandLetters(r, 24, 24),
			})
		}

		if err := flush(ctx, exec, tpcc.TableOrders, &orders, false); err != nil {
			return err
		}
		if err := flush(ctx, exec, tpcc.TableNewOrder, &newOrders, false); err != nil {
			return err
		}
		if err := flush(ctx, exec, tpcc.TableOrderLine, &orderLines, false); err != nil {
			return err
		}
	}
	if err := flush(ctx, exec, tpcc.TableOrders, &orders, true); err != nil {
		return err
	}
	if err := flush(ctx, exec, tpcc.TableNewOrder, &newOrders, true); err != nil {
		return err
	}
	return flush(ctx, exec, tpcc.TableOrderLine, &orderLines, true)
}

// DoTransaction draws one transaction from the mix and executes it.
func (w *Workload) DoTransaction(ctx context.Context, exec tpcc.Executor) error {
	s := ctx.Value(stateKey).(*tpccState)

	switch transactionType(w.txChooser.Next(s.r)) {
	case txNewOrder:
		_, err := exec.DoNewOrder(ctx, w.nextNewOrder(s))
		return err
	case txPayment:
		_, err := exec.DoPayment(ctx, w.nextPayment(s))
		return err
	case txOrderStatus:
		_, err := exec.DoOrderStatus(ctx, w.nextOrderStatus(s))
		return err
	case txDelivery:
		_, err := exec.DoDelivery(ctx, w.nextDelivery(s))
		return err
	case txStockLevel:
		_, err := exec.DoStockLevel(ctx, w.nextStockLevel(s))
		return err
	default:
		panic("unknown transaction type")
	}
}

func (w *Workload) randWarehouse(r *rand.Rand) int64 {
	return r.Int63n(w.warehouses) + 1
}

func (w *Workload) nextNewOrder(s *tpccState) *tpcc.NewOrderParams {
	wID := w.randWarehouse(s.r)
	olCnt := s.r.Int63n(11) + 5

	p := &tpcc.NewOrderParams{
		WarehouseID: wID,
		DistrictID:  s.r.Int63n(tpcc.DistrictsPerWarehouse) + 1,
		CustomerID:  s.customerID.Next(s.r),
		EntryDate:   time.Now(),
	}
	for i := int64(0); i < olCnt; i++ {
		supplyWID := wID
		// One line in a hundred is supplied by a remote warehouse.
		if w.warehouses > 1 && s.r.Intn(100) == 0 {
			for supplyWID == wID {
				supplyWID = w.randWarehouse(s.r)
			}
		}
		p.ItemIDs = append(p.ItemIDs, s.itemID.Next(s.r))
		p.SupplyWIDs = append(p.SupplyWIDs, supplyWID)
		p.Quantities = append(p.Quantities, s.r.Int63n(10)+1)
	}
	// One order in a hundred carries an unknown item and must roll back.
	if s.r.Intn(100) == 0 {
		p.ItemIDs[len(p.ItemIDs)-1] = w.items + 1
	}
	return p
}

func (w *Workload) nextPayment(s *tpccState) *tpcc.PaymentParams {
	wID := w.randWarehouse(s.r)
	p := &tpcc.PaymentParams{
		WarehouseID: wID,
		DistrictID:  s.r.Int63n(tpcc.DistrictsPerWarehouse) + 1,
		Amount:      round2(1 + s.r.Float64()*4999),
		CustomerWID: wID,
		Date:        time.Now(),
	}
	p.CustomerDID = p.DistrictID
	// Six lookups in ten go by last name.
	if s.r.Intn(10) < 6 {
		p.CustomerLast = lastNameOf(s.lastName.Next(s.r))
	} else {
		p.CustomerID = s.customerID.Next(s.r)
	}
	return p
}

func (w *Workload) nextOrderStatus(s *tpccState) *tpcc.OrderStatusParams {
	p := &tpcc.OrderStatusParams{
		WarehouseID: w.randWarehouse(s.r),
		DistrictID:  s.r.Int63n(tpcc.DistrictsPerWarehouse) + 1,
	}
	if s.r.Intn(10) < 6 {
		p.CustomerLast = lastNameOf(s.lastName.Next(s.r))
	} else {
		p.CustomerID = s.customerID.Next(s.r)
	}
	return p
}

func (w *Workload) nextDelivery(s *tpccState) *tpcc.DeliveryParams {
	return &tpcc.DeliveryParams{
		WarehouseID:  w.randWarehouse(s.r),
		CarrierID:    s.r.Int63n(10) + 1,
		DeliveryDate: time.Now(),
	}
}

func (w *Workload) nextStockLevel(s *tpccState) *tpcc.StockLevelParams {
	return &tpcc.StockLevelParams{
		WarehouseID: w.randWarehouse(s.r),
		DistrictID:  s.r.Int63n(tpcc.DistrictsPerWarehouse) + 1,
		Threshold:   s.r.Int63n(11) + 10,
	}
}
