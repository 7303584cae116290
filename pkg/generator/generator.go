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

// Generator generates a sequence of integers, one per Next call.
type Generator interface {
	// Next returns the next value of the sequence.
	Next(r *rand.Rand) int64

	// Last returns the value Next returned most recently.
	Last() int64
}

// Number holds the last generated value; generators embed it to satisfy the
// Last part of the Generator interface.
type Number struct {
	LastValue int64
}

// SetLastValue sets the last value generated.
func (n *Number) SetLastValue(value int64) {
	n.LastValue = value
}

// Last implements the Generator Last interface.
func (n *Number) Last() int64 {
	return n.LastValue
}
