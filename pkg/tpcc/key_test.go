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
	"testing"
	"time"
)

func TestKey(t *testing.T) {
	if got := Key(int64(10), int64(1), int64(1)); got != "10:1:1" {
		t.Fatalf("key = %q", got)
	}
	if got := Key(1); got != "1" {
		t.Fatalf("key = %q", got)
	}
	if Key(int64(1), int64(23)) == Key(int64(12), int64(3)) {
		t.Fatal("different key columns collide")
	}
	if got := keyPrefix(int64(10), int64(1), int64(1)); got != "10:1:1:" {
		t.Fatalf("prefix = %q", got)
	}
}

func TestFormatValue(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"abc", "abc"},
		{[]byte("abc"), "abc"},
		{int(7), "7"},
		{int32(7), "7"},
		{int64(7), "7"},
		{float64(30), "30"},
		{float64(100.5), "100.5"},
		{true, "1"},
		{false, "0"},
		{time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), "2024-05-01T12:00:00Z"},
	}
	for _, c := range cases {
		if got := formatValue(c.in); got != c.want {
			t.Errorf("formatValue(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
