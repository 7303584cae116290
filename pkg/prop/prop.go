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

package prop

// Properties
const (
	DB        = "db"
	DBDefault = "memory"

	// ShardAddrs lists one address per shard, comma separated. Embedded
	// backends (memory, badger, bolt) treat each entry as a shard name or
	// directory rather than a network address.
	ShardAddrs        = "shard.addrs"
	ShardAddrsDefault = "shard-0"

	Warehouses        = "tpcc.warehouses"
	WarehousesDefault = int64(1)

	ItemCount                       = "tpcc.items"
	ItemCountDefault                = int64(1000)
	CustomersPerDistrict            = "tpcc.customers_per_district"
	CustomersPerDistrictDefault     = int64(30)
	InitialOrdersPerCustomer        = "tpcc.initial_orders_per_customer"
	InitialOrdersPerCustomerDefault = int64(1)

	OperationCount     = "operationcount"
	ThreadCount        = "threadcount"
	ThreadCountDefault = 1
	Target             = "target"
	MaxExecutiontime   = "maxexecutiontime"
	WarmUpTime         = "warmuptime"
	DoTransactions     = "dotransactions"
	Command            = "command"

	// Transaction mix. Defaults follow the standard TPC-C proportions.
	NewOrderProportion           = "txn.neworder_proportion"
	NewOrderProportionDefault    = float64(0.45)
	PaymentProportion            = "txn.payment_proportion"
	PaymentProportionDefault     = float64(0.43)
	OrderStatusProportion        = "txn.orderstatus_proportion"
	OrderStatusProportionDefault = float64(0.04)
	DeliveryProportion           = "txn.delivery_proportion"
	DeliveryProportionDefault    = float64(0.04)
	StockLevelProportion         = "txn.stocklevel_proportion"
	StockLevelProportionDefault  = float64(0.04)

	// Per-write bounded retry inside a transaction. 0 disables retrying.
	RetryLimit           = "retry.limit"
	RetryLimitDefault    = int64(0)
	RetryInterval        = "retry.interval_ms"
	RetryIntervalDefault = int64(2)

	// Timeout applied to a single transaction invocation. 0 means none.
	TxnTimeout        = "txn.timeout_ms"
	TxnTimeoutDefault = int64(0)

	Verbose        = "verbose"
	VerboseDefault = false
	Silence        = "silence"
	SilenceDefault = true

	// DropData wipes every table on every shard before loading.
	DropData        = "dropdata"
	DropDataDefault = false

	LogInterval = "measurement.interval"

	MeasurementType          = "measurementtype"
	MeasurementTypeDefault   = "histogram"
	MeasurementRawOutputFile = "measurement.output_file"

	OutputStyle = "outputstyle"

	DebugPprof        = "debug.pprof"
	DebugPprofDefault = ":6060"
)
