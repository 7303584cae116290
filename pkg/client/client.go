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
	"math/rand"
	"sync"
	"time"

	"github.com/magiconair/properties"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/kvbench/go-tpcc/pkg/measurement"
	"github.com/kvbench/go-tpcc/pkg/prop"
	"github.com/kvbench/go-tpcc/pkg/tpcc"
	"github.com/kvbench/go-tpcc/pkg/workload"
)

type worker struct {
	p               *properties.Properties
	exec            tpcc.Executor
	workload        *workload.Workload
	doTransactions  bool
	opCount         int64
	targetOpsPerMs  float64
	threadID        int
	threadCount     int
	targetOpsTickNs int64
	opsDone         int64
}

func newWorker(p *properties.Properties, threadID int, threadCount int, wl *workload.Workload, exec tpcc.Executor) (*worker, error) {
	w := new(worker)
	w.p = p
	w.doTransactions = p.GetBool(prop.DoTransactions, true)
	w.threadID = threadID
	w.threadCount = threadCount
	w.workload = wl
	w.exec = exec

	if w.doTransactions {
		totalOpCount := p.GetInt64(prop.OperationCount, 0)
		if totalOpCount < int64(threadCount) {
			return nil, errors.Errorf("%s: %d should be no less than threadcount: %d",
				prop.OperationCount, totalOpCount, threadCount)
		}
		w.opCount = totalOpCount / int64(threadCount)
	}

	targetPerThreadPerms := float64(-1)
	if v := p.GetInt64(prop.Target, 0); v > 0 {
		targetPerThread := float64(v) / float64(threadCount)
		targetPerThreadPerms = targetPerThread / 1000.0
	}

	if targetPerThreadPerms > 0 {
		w.targetOpsPerMs = targetPerThreadPerms
		w.targetOpsTickNs = int64(1000000.0 / w.targetOpsPerMs)
	}

	return w, nil
}

func (w *worker) throttle(ctx context.Context, startTime time.Time) {
	if w.targetOpsPerMs <= 0 {
		return
	}

	d := time.Duration(w.opsDone * w.targetOpsTickNs)
	d = startTime.Add(d).Sub(time.Now())
	if d < 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

func (w *worker) run(ctx context.Context) {
	if !w.doTransactions {
		if err := w.workload.LoadPartition(ctx, w.exec, w.threadID, w.threadCount); err != nil {
			log.Error("load failed", zap.Int("thread", w.threadID), zap.Error(err))
		}
		return
	}

	// spread the thread operations out so they don't all hit the stores at
	// the same time
	if w.targetOpsPerMs > 0.0 && w.targetOpsPerMs <= 1.0 {
		time.Sleep(time.Duration(rand.Int63n(w.targetOpsTickNs)))
	}

	startTime := time.Now()

	for w.opCount == 0 || w.opsDone < w.opCount {
		err := w.workload.DoTransaction(ctx, w.exec)
		if err != nil && !w.p.GetBool(prop.Silence, prop.SilenceDefault) {
			log.Warn("transaction failed", zap.Int("thread", w.threadID), zap.Error(err))
		}

		if measurement.IsWarmUpFinished() {
			w.opsDone++
			w.throttle(ctx, startTime)
		}

		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// Client runs the workload against the driver with a pool of worker
// goroutines.
type Client struct {
	p        *properties.Properties
	workload *workload.Workload
	exec     tpcc.Executor
}

// NewClient returns a client with the given workload and executor.
// Neither can be nil.
func NewClient(p *properties.Properties, wl *workload.Workload, exec tpcc.Executor) *Client {
	return &Client{p: p, workload: wl, exec: exec}
}

// Run drives the load or transaction stage, blocking until every worker
// ends. Data generation is partitioned over the workers by warehouse.
func (c *Client) Run(ctx context.Context) error {
	threadCount := c.p.GetInt(prop.ThreadCount, prop.ThreadCountDefault)
	doTransactions := c.p.GetBool(prop.DoTransactions, true)

	workers := make([]*worker, threadCount)
	for i := 0; i < threadCount; i++ {
		w, err := newWorker(c.p, i, threadCount, c.workload, c.exec)
		if err != nil {
			return err
		}
		workers[i] = w
	}

	if !doTransactions && c.p.GetBool(prop.DropData, prop.DropDataDefault) {
		if err := c.exec.Reset(ctx); err != nil {
			return errors.Annotate(err, "drop existing data")
		}
	}

	measureCtx, measureCancel := context.WithCancel(ctx)
	measureCh := make(chan struct{}, 1)
	go func() {
		defer func() {
			measureCh <- struct{}{}
		}()
		// the load stage has no warm up
		if doTransactions {
			dur := c.p.GetInt64(prop.WarmUpTime, 0)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(dur) * time.Second):
			}
		}
		measurement.EnableWarmUp(false)

		dur := c.p.GetInt64(prop.LogInterval, 10)
		t := time.NewTicker(time.Duration(dur) * time.Second)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				measurement.Summary()
			case <-measureCtx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	wg.Add(threadCount)
	for i := 0; i < threadCount; i++ {
		go func(threadID int) {
			defer wg.Done()

			ctx := c.workload.InitThread(ctx, threadID, threadCount)
			workers[threadID].run(ctx)
			c.workload.CleanupThread(ctx)
		}(i)
	}

	wg.Wait()

	var err error
	if !doTransactions {
		err = c.exec.LoadFinish(ctx)
	}
	measureCancel()
	<-measureCh
	return err
}
