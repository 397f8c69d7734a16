package order

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"wellbe/utils"
)

// coerceQuantity accepts whole positive numbers in any of the shapes a
// decoded intent can carry.
func coerceQuantity(v any) (int, error) {
	var q float64
	switch t := v.(type) {
	case int:
		q = float64(t)
	case int32:
		q = float64(t)
	case int64:
		q = float64(t)
	case float64:
		q = t
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, utils.InvalidInput("quantity %q is not a number", t.String())
		}
		q = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, utils.InvalidInput("quantity %q is not a number", t)
		}
		q = f
	case nil:
		return 0, utils.InvalidInput("quantity is required")
	default:
		return 0, utils.InvalidInput("quantity has unsupported type %T", v)
	}
	if q < 1 || q != math.Trunc(q) || q > math.MaxInt32 {
		return 0, utils.InvalidInput("quantity must be a positive integer")
	}
	return int(q), nil
}
