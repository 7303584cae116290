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

import "context"

// Executor is the driver surface the workload runs against: the bulk-load
// entry points and the five transactions. Driver implements it; so does the
// measuring wrapper in pkg/client.
type Executor interface {
	LoadTuples(ctx context.Context, tableName string, tuples [][]interface{}) error
	LoadFinish(ctx context.Context) error
	Reset(ctx context.Context) error

	DoNewOrder(ctx context.Context, p *NewOrderParams) (*NewOrderResult, error)
	DoPayment(ctx context.Context, p *PaymentParams) (*PaymentResult, error)
	DoOrderStatus(ctx context.Context, p *OrderStatusParams) (*OrderStatusResult, error)
	DoDelivery(ctx context.Context, p *DeliveryParams) (*DeliveryResult, error)
	DoStockLevel(ctx context.Context, p *StockLevelParams) (*StockLevelResult, error)
}
