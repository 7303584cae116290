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

package generator

import (
	"math/rand"
	"testing"
)

func TestNURandRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	cases := []struct {
		a, x, y int64
	}{
		{255, 0, 999},
		{1023, 1, 3000},
		{8191, 1, 100000},
	}
	for _, c := range cases {
		g := NewNURand(c.a, c.x, c.y, r)
		for i := 0; i < 10000; i++ {
			n := g.Next(r)
			if n < c.x || n > c.y {
				t.Fatalf("NURand(%d, %d, %d) = %d out of range", c.a, c.x, c.y, n)
			}
			if g.Last() != n {
				t.Fatalf("Last() = %d after Next() = %d", g.Last(), n)
			}
		}
	}
}

func TestDiscreteMix(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	d := NewDiscrete()
	d.Add(0.45, 1)
	d.Add(0.43, 2)
	d.Add(0.04, 3)
	d.Add(0.04, 4)
	d.Add(0.04, 5)

	counts := make(map[int64]int)
	const draws = 100000
	for i := 0; i < draws; i++ {
		counts[d.Next(r)]++
	}
	for v := int64(1); v <= 5; v++ {
		if counts[v] == 0 {
			t.Fatalf("value %d never drawn", v)
		}
	}
	// The two big buckets should dominate by a wide margin.
	if counts[1] < draws/3 || counts[2] < draws/3 {
		t.Fatalf("mix skewed: %v", counts)
	}
	if counts[3] > draws/10 {
		t.Fatalf("mix skewed: %v", counts)
	}
}

func TestUniformRange(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	g := NewUniform(5, 15)
	for i := 0; i < 1000; i++ {
		n := g.Next(r)
		if n < 5 || n > 15 {
			t.Fatalf("uniform value %d out of [5, 15]", n)
		}
	}
}
