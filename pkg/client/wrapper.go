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

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/kvbench/go-tpcc/pkg/measurement"
	"github.com/kvbench/go-tpcc/pkg/tpcc"
)

// DriverWrapper decorates a tpcc.Executor with per-transaction latency
// measurement. Aborted New-Orders are recorded separately: they are a
// mandated outcome, not an error.
type DriverWrapper struct {
	Executor tpcc.Executor
}

func measure(start time.Time, op string, err error) {
	lan := time.Now().Sub(start)
	if err != nil {
		measurement.Measure(fmt.Sprintf("%s_ERROR", op), start, lan)
		return
	}

	measurement.Measure(op, start, lan)
}

func (w DriverWrapper) LoadTuples(ctx context.Context, tableName string, tuples [][]interface{}) (err error) {
	start := time.Now()
	defer func() {
		measure(start, "LOAD", err)
	}()

	return w.Executor.LoadTuples(ctx, tableName, tuples)
}

func (w DriverWrapper) LoadFinish(ctx context.Context) error {
	return w.Executor.LoadFinish(ctx)
}

func (w DriverWrapper) Reset(ctx context.Context) error {
	return w.Executor.Reset(ctx)
}

func (w DriverWrapper) DoNewOrder(ctx context.Context, p *tpcc.NewOrderParams) (res *tpcc.NewOrderResult, err error) {
	start := time.Now()
	defer func() {
		if err == nil && res != nil && res.Aborted {
			measure(start, "NEW_ORDER_ROLLBACK", nil)
			return
		}
		measure(start, "NEW_ORDER", err)
	}()

	return w.Executor.DoNewOrder(ctx, p)
}

func (w DriverWrapper) DoPayment(ctx context.Context, p *tpcc.PaymentParams) (_ *tpcc.PaymentResult, err error) {
	start := time.Now()
	defer func() {
		measure(start, "PAYMENT", err)
	}()

	return w.Executor.DoPayment(ctx, p)
}

func (w DriverWrapper) DoOrderStatus(ctx context.Context, p *tpcc.OrderStatusParams) (_ *tpcc.OrderStatusResult, err error) {
	start := time.Now()
	defer func() {
		measure(start, "ORDER_STATUS", err)
	}()

	return w.Executor.DoOrderStatus(ctx, p)
}

func (w DriverWrapper) DoDelivery(ctx context.Context, p *tpcc.DeliveryParams) (_ *tpcc.DeliveryResult, err error) {
	start := time.Now()
	defer func() {
		measure(start, "DELIVERY", err)
	}()

	return w.Executor.DoDelivery(ctx, p)
}

func (w DriverWrapper) DoStockLevel(ctx context.Context, p *tpcc.StockLevelParams) (_ *tpcc.StockLevelResult, err error) {
	start := time.Now()
	defer func() {
		measure(start, "STOCK_LEVEL", err)
	}()

	return w.Executor.DoStockLevel(ctx, p)
}
