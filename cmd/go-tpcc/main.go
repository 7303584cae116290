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

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/magiconair/properties"
	"github.com/spf13/cobra"

	"github.com/kvbench/go-tpcc/pkg/client"
	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/measurement"
	"github.com/kvbench/go-tpcc/pkg/prop"
	"github.com/kvbench/go-tpcc/pkg/shard"
	"github.com/kvbench/go-tpcc/pkg/tpcc"
	"github.com/kvbench/go-tpcc/pkg/util"
	"github.com/kvbench/go-tpcc/pkg/workload"

	// Register in-memory store
	_ "github.com/kvbench/go-tpcc/db/memory"
	// Register Redis store
	_ "github.com/kvbench/go-tpcc/db/redis"
	// Register Badger store
	_ "github.com/kvbench/go-tpcc/db/badger"
	// Register BoltDB store
	_ "github.com/kvbench/go-tpcc/db/boltdb"
)

var (
	propertyFiles  []string
	propertyValues []string

	globalContext context.Context
	globalCancel  context.CancelFunc

	globalRouter   *shard.Router
	globalExec     tpcc.Executor
	globalWorkload *workload.Workload
	globalProps    *properties.Properties
)

func initialGlobal(dbName string, onProperties func()) {
	globalProps = properties.NewProperties()
	if len(propertyFiles) > 0 {
		globalProps = properties.MustLoadFiles(propertyFiles, properties.UTF8, false)
	}

	for _, prop := range propertyValues {
		seps := strings.SplitN(prop, "=", 2)
		if len(seps) != 2 {
			log.Fatalf("bad property: `%s`, expected format `name=value`", prop)
		}
		globalProps.Set(seps[0], seps[1])
	}

	if onProperties != nil {
		onProperties()
	}

	addr := globalProps.GetString(prop.DebugPprof, prop.DebugPprofDefault)
	go func() {
		http.ListenAndServe(addr, nil)
	}()

	measurement.InitMeasure(globalProps)

	var err error
	if globalWorkload, err = workload.NewWorkload(globalProps); err != nil {
		util.Fatalf("create workload failed %v", err)
	}

	creator := kv.GetStoreCreator(dbName)
	if creator == nil {
		util.Fatalf("%s is not registered", dbName)
	}

	addrs := strings.Split(globalProps.GetString(prop.ShardAddrs, prop.ShardAddrsDefault), ",")
	stores := make([]kv.Store, 0, len(addrs))
	for i, shardAddr := range addrs {
		store, err := creator.Create(globalProps, i, strings.TrimSpace(shardAddr))
		if err != nil {
			util.Fatalf("create %s store for shard %d (%s) failed %v", dbName, i, shardAddr, err)
		}
		stores = append(stores, store)
	}

	warehouses := globalProps.GetInt64(prop.Warehouses, prop.WarehousesDefault)
	globalRouter = shard.NewRouter(stores, warehouses, nil)

	globalExec = client.DriverWrapper{Executor: tpcc.NewDriver(globalProps, globalRouter)}
}

func main() {
	globalContext, globalCancel = context.WithCancel(context.Background())

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	closeDone := make(chan struct{}, 1)
	go func() {
		sig := <-sc
		fmt.Printf("\nGot signal [%v] to exit.\n", sig)
		globalCancel()

		select {
		case <-sc:
			// send signal again, return directly
			fmt.Printf("\nGot signal [%v] again to exit.\n", sig)
			os.Exit(1)
		case <-time.After(10 * time.Second):
			fmt.Print("\nWait 10s for closed, force exit\n")
			os.Exit(1)
		case <-closeDone:
			return
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "go-tpcc",
		Short: "TPC-C on sharded key-value stores",
	}

	rootCmd.AddCommand(
		newShellCommand(),
		newLoadCommand(),
		newRunCommand(),
	)

	cobra.EnablePrefixMatching = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(rootCmd.UsageString())
	}

	globalCancel()
	if globalRouter != nil {
		globalRouter.Close()
	}

	closeDone <- struct{}{}
}
