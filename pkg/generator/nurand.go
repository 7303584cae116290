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

import "math/rand"

// NURand is TPC-C's non-uniform random generator, clause 2.1.6:
// NURand(A, x, y) = (((random(0,A) | random(x,y)) + C) % (y-x+1)) + x.
// A is 255 for customer last names, 1023 for customer ids and 8191 for
// item ids. C is a per-generator constant drawn once.
type NURand struct {
	Number
	a int64
	x int64
	y int64
	c int64
}

// NewNURand creates the generator for values in [x, y] with constant A.
func NewNURand(a int64, x int64, y int64, r *rand.Rand) *NURand {
	return &NURand{
		a: a,
		x: x,
		y: y,
		c: r.Int63n(a + 1),
	}
}

// Next implements the Generator Next interface.
func (g *NURand) Next(r *rand.Rand) int64 {
	u := r.Int63n(g.a + 1)
	v := r.Int63n(g.y-g.x+1) + g.x
	n := ((u|v)+g.c)%(g.y-g.x+1) + g.x
	g.SetLastValue(n)
	return n
}
