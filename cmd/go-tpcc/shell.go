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
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	shellwords "github.com/mattn/go-shellwords"
	"github.com/spf13/cobra"

	"github.com/kvbench/go-tpcc/pkg/kv"
	"github.com/kvbench/go-tpcc/pkg/tpcc"
	"github.com/kvbench/go-tpcc/pkg/util"
)

func newShellCommand() *cobra.Command {
	m := &cobra.Command{
		Use:   "shell db",
		Short: "Inspect the loaded records shard by shard",
		Args:  cobra.MinimumNArgs(1),
		Run:   runShellCommandFunc,
	}
	m.Flags().StringSliceVarP(&propertyFiles, "property_file", "P", nil, "Specify a property file")
	m.Flags().StringArrayVarP(&propertyValues, "prop", "p", nil, "Specify a property value with name=value")
	return m
}

var (
	shellContext context.Context
	shellShard   int
)

func shellStore() (kv.Store, error) {
	return globalRouter.Store(shellShard)
}

func runShellCommandFunc(cmd *cobra.Command, args []string) {
	dbName := args[0]
	initialGlobal(dbName, nil)

	shellContext = globalContext
	shellLoop()
}

func runShellCommand(args []string) {
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "go-tpcc shell command",
	}

	cmd.SetArgs(args)
	cmd.ParseFlags(args)

	cmd.AddCommand(
		&cobra.Command{
			Use:                   "read table key [field0 field1 ...]",
			Short:                 "Read a record from the current shard",
			Args:                  cobra.MinimumNArgs(2),
			Run:                   runShellReadCommand,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "scan table prefix [field0 field1 ...]",
			Short:                 "Scan records whose key starts with prefix",
			Args:                  cobra.MinimumNArgs(2),
			Run:                   runShellScanCommand,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "insert table key field0=value0 [field1=value1 ...]",
			Short:                 "Insert a record into the current shard",
			Args:                  cobra.MinimumNArgs(3),
			Run:                   runShellInsertCommand,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "update table key field0=value0 [field1=value1 ...]",
			Short:                 "Update a record on the current shard",
			Args:                  cobra.MinimumNArgs(3),
			Run:                   runShellUpdateCommand,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "delete table key",
			Short:                 "Delete a record from the current shard",
			Args:                  cobra.MinimumNArgs(2),
			Run:                   runShellDeleteCommand,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "shard [n]",
			Short:                 "Get or [set] the shard the shell talks to",
			Args:                  cobra.MaximumNArgs(1),
			Run:                   runShellShardCommand,
			DisableFlagsInUseLine: true,
		},
		&cobra.Command{
			Use:                   "tables",
			Short:                 "List the table names and their columns",
			Args:                  cobra.NoArgs,
			Run:                   runShellTablesCommand,
			DisableFlagsInUseLine: true,
		},
	)

	if err := cmd.Execute(); err != nil {
		fmt.Println(cmd.UsageString())
	}
}

func runShellReadCommand(cmd *cobra.Command, args []string) {
	table, key := args[0], args[1]
	fields := args[2:]

	store, err := shellStore()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	row, err := store.Read(shellContext, table, key, fields)
	if err != nil {
		fmt.Printf("Read %s failed %v\n", key, err)
		return
	}

	fmt.Printf("Read %s ok\n", key)
	for field, value := range row {
		fmt.Printf("%s=%q\n", field, value)
	}
}

func runShellScanCommand(cmd *cobra.Command, args []string) {
	table, prefix := args[0], args[1]
	fields := args[2:]

	store, err := shellStore()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	records, err := store.ScanPrefix(shellContext, table, prefix, fields)
	if err != nil {
		fmt.Printf("Scan %s with prefix %s failed %v\n", table, prefix, err)
		return
	}

	if len(records) == 0 {
		fmt.Println("0 records")
		return
	}

	fmt.Println("--------------------------------")
	for i, record := range records {
		fmt.Printf("Record %d: %s\n", i+1, record.Key)
		for field, value := range record.Values {
			fmt.Printf("%s=%q\n", field, value)
		}
	}
	fmt.Println("--------------------------------")
}

func shellValues(args []string) map[string][]byte {
	values := make(map[string][]byte, len(args))
	for _, arg := range args {
		sep := strings.SplitN(arg, "=", 2)
		if len(sep) != 2 {
			fmt.Printf("ignore %s, expected format field=value\n", arg)
			continue
		}
		values[sep[0]] = []byte(sep[1])
	}
	return values
}

func runShellInsertCommand(cmd *cobra.Command, args []string) {
	table, key := args[0], args[1]
	values := shellValues(args[2:])

	store, err := shellStore()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	if err := store.Insert(shellContext, table, key, values); err != nil {
		fmt.Printf("Insert %s failed %v\n", key, err)
		return
	}

	fmt.Printf("Insert %s ok\n", key)
}

func runShellUpdateCommand(cmd *cobra.Command, args []string) {
	table, key := args[0], args[1]
	values := shellValues(args[2:])

	store, err := shellStore()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	if err := store.Update(shellContext, table, key, values); err != nil {
		fmt.Printf("Update %s failed %v\n", key, err)
		return
	}

	fmt.Printf("Update %s ok\n", key)
}

func runShellDeleteCommand(cmd *cobra.Command, args []string) {
	table, key := args[0], args[1]

	store, err := shellStore()
	if err != nil {
		fmt.Printf("%v\n", err)
		return
	}
	if err := store.Delete(shellContext, table, key); err != nil {
		fmt.Printf("Delete %s failed %v\n", key, err)
		return
	}

	fmt.Printf("Delete %s ok\n", key)
}

func runShellShardCommand(cmd *cobra.Command, args []string) {
	if len(args) == 1 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 || n >= len(globalRouter.Stores()) {
			fmt.Printf("invalid shard %s, have %d shards\n", args[0], len(globalRouter.Stores()))
			return
		}
		shellShard = n
	}
	fmt.Printf("Using shard %d of %d\n", shellShard, len(globalRouter.Stores()))
}

func runShellTablesCommand(cmd *cobra.Command, args []string) {
	for _, table := range tpcc.Tables() {
		columns, _ := tpcc.ColumnsOf(table)
		fmt.Printf("%s: %s\n", table, strings.Join(columns, ", "))
	}
}

func shellLoop() {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            "\033[31m»\033[0m ",
		HistoryFile:       "/tmp/readline.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "^D",
		HistorySearchFold: true,
	})
	if err != nil {
		util.Fatalf("%v", err)
	}
	defer l.Close()

	for {
		line, err := l.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				return
			} else if err == io.EOF {
				return
			}
			continue
		}
		if line == "exit" {
			return
		}
		args, err := shellwords.Parse(strings.TrimSpace(line))
		if err != nil {
			fmt.Printf("parse %q failed %v\n", line, err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		runShellCommand(args)
	}
}
