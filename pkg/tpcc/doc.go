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

// Package tpcc implements the TPC-C workload on top of a sharded key-value
// store, with no relational engine underneath: every table is a keyspace of
// records addressed by string keys derived from the compound primary keys,
// partitioned across shards by warehouse id.
//
// Execution is best effort. A transaction is a fixed sequence of keyed
// reads and writes issued one at a time; the store offers no multi-key
// atomicity, so a failure mid-sequence leaves a visible partial state, and
// concurrent transactions touching the same district, customer or stock
// record may interleave and observe intermediate values. Individual writes
// can be retried with bounded backoff (retry.limit), which narrows but does
// not close those windows. Callers that need stronger guarantees must get
// them from the backend.
package tpcc
