// Copyright 2019 PingCAP, Inc.
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

package util

import (
	"encoding/binary"
	"sort"

	"github.com/pingcap/errors"
)

// EncodeRow encodes a column map into a slice of byte.
// Row layout: name1, value1, name2, value2, ... with columns sorted by name
// so that the same map always encodes to the same bytes.
// buf is passed by the caller to reduce allocations; pass nil to let
// EncodeRow allocate it.
func EncodeRow(values map[string][]byte, buf []byte) ([]byte, error) {
	buf = buf[:0]
	if len(values) == 0 {
		return append(buf, 0), nil
	}

	cols := make([]string, 0, len(values))
	for col := range values {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	for _, col := range cols {
		buf = encodeBytes(buf, []byte(col))
		buf = encodeBytes(buf, values[col])
	}
	return buf, nil
}

const compactBytesFlag byte = 2

func encodeBytes(b []byte, v []byte) []byte {
	b = append(b, compactBytesFlag)
	b = appendVarint(b, int64(len(v)))
	return append(b, v...)
}

func appendVarint(b []byte, v int64) []byte {
	var data [binary.MaxVarintLen64]byte
	n := binary.PutVarint(data[:], v)
	return append(b, data[:n]...)
}

// DecodeRow decodes a byte slice into a column map. When fields is non-empty
// only the named columns are returned.
// Row layout: name1, value1, name2, value2, ...
func DecodeRow(b []byte, fields []string) (map[string][]byte, error) {
	row := make(map[string][]byte)
	if len(b) == 0 {
		return row, nil
	}
	if len(b) == 1 && b[0] == 0 {
		return row, nil
	}

	var wanted map[string]struct{}
	if len(fields) > 0 {
		wanted = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			wanted[f] = struct{}{}
		}
	}

	for len(b) > 0 {
		remain, col, err := decodeBytes(b)
		if err != nil {
			return row, err
		}
		var v []byte
		remain, v, err = decodeBytes(remain)
		if err != nil {
			return row, err
		}
		if wanted == nil {
			row[string(col)] = v
		} else if _, ok := wanted[string(col)]; ok {
			row[string(col)] = v
		}
		b = remain
	}
	return row, nil
}

func decodeVarint(b []byte) ([]byte, int64, error) {
	v, n := binary.Varint(b)
	if n > 0 {
		return b[n:], v, nil
	}
	if n < 0 {
		return nil, 0, errors.New("value larger than 64 bits")
	}
	return nil, 0, errors.New("insufficient bytes to decode value")
}

func decodeBytes(b []byte) ([]byte, []byte, error) {
	remain, n, err := decodeVarint(b[1:])
	if err != nil {
		return nil, nil, err
	}
	if int64(len(remain)) < n {
		return nil, nil, errors.Errorf("insufficient bytes to decode value, expected length: %v", n)
	}
	return remain[n:], remain[:n], nil
}
