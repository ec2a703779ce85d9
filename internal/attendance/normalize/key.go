package normalize

import (
	"fmt"
	"math"
	"strconv"
)

// KeyString renders a primary key as its decimal string. Integer widths
// are formatted exactly so identifiers beyond 2^53 keep full precision.
func KeyString(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case string:
		return k
	case []byte:
		return string(k)
	case int64:
		return strconv.FormatInt(k, 10)
	case int32:
		return strconv.FormatInt(int64(k), 10)
	case int:
		return strconv.Itoa(k)
	case uint64:
		return strconv.FormatUint(k, 10)
	case uint32:
		return strconv.FormatUint(uint64(k), 10)
	case uint:
		return strconv.FormatUint(uint64(k), 10)
	case float64:
		if k == math.Trunc(k) && !math.IsInf(k, 0) {
			return strconv.FormatFloat(k, 'f', 0, 64)
		}
		return strconv.FormatFloat(k, 'f', -1, 64)
	case fmt.Stringer:
		return k.String()
	default:
		return fmt.Sprint(k)
	}
}

// CompareKeys orders two decimal keys numerically. Non-numeric keys fall
// back to length then lexical order, which matches numeric order for
// unsigned decimals without leading zeros.
func CompareKeys(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
