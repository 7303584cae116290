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
	"fmt"
	"strconv"
	"strings"
	"time"
)

// keySep joins the parts of a compound primary key. Key derivation performs
// no escaping, so key column values must never contain the separator;
// TPC-C keys are numeric ids, which cannot.
const keySep = ":"

// Key builds the canonical string key from the ordered primary-key column
// values. Values must be given in the table's declared primary-key order.
func Key(parts ...interface{}) string {
	elems := make([]string, len(parts))
	for i, p := range parts {
		elems[i] = formatValue(p)
	}
	return strings.Join(elems, keySep)
}

// keyPrefix is Key with a trailing separator, for range scans over all
// records sharing the leading key columns.
func keyPrefix(parts ...interface{}) string {
	return Key(parts...) + keySep
}

// formatValue renders one column value the way it is stored: integers and
// floats via strconv, times in RFC 3339, everything else via fmt.
func formatValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int:
		return strconv.FormatInt(int64(x), 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", x)
	}
}
