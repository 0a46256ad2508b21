package parity

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"
)

// Normalize rewrites a decoded value into a canonical form so that the same
// data read from JSON or TOML compares equal:
//   - timestamps, and strings that parse as RFC 3339, become RFC 3339 UTC strings
//   - every number becomes a json.Number that is exact: integral values as
//     integers with every digit, fractions in their shortest exact spelling
//   - TOML arrays of tables become plain []any
//
// Object key order never matters. Array order does.
func Normalize(v any) (any, error) {
	switch t := v.(type) {
	case nil, bool:
		return t, nil
	case string:
		return normalizeString(t), nil
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano), nil
	case json.Number:
		return canonicalNumber(t.String())
	case int:
		return json.Number(strconv.FormatInt(int64(t), 10)), nil
	case int64:
		return json.Number(strconv.FormatInt(t, 10)), nil
	case float64:
		return canonicalFloat(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			n, err := Normalize(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case Dataset:
		return Normalize(map[string]any(t))
	case []any:
		return normalizeSlice(len(t), func(i int) any { return t[i] })
	case []map[string]any:
		return normalizeSlice(len(t), func(i int) any { return t[i] })
	case fmt.Stringer:
		// toml.LocalDate and friends when decoded into concrete types.
		return t.String(), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}

func normalizeSlice(n int, at func(int) any) (any, error) {
	out := make([]any, n)
	for i := range n {
		v, err := Normalize(at(i))
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// normalizeString canonicalizes RFC 3339 timestamps and leaves other
// strings alone.
func normalizeString(s string) string {
	if len(s) < len("2006-01-02T15:04:05Z") {
		return s
	}
	ts, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return s
	}
	return ts.UTC().Format(time.RFC3339Nano)
}

// canonicalNumber renders a numeric literal so that equal values print the
// same and different values never do. Integers keep every digit, however
// large. A fraction prints as its shortest float64 spelling when that
// spelling is exactly the same value, and as its full decimal expansion
// otherwise.
func canonicalNumber(s string) (json.Number, error) {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return "", fmt.Errorf("invalid number %q", s)
	}
	if r.IsInt() {
		return json.Number(r.Num().String()), nil
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		short := strconv.FormatFloat(f, 'g', -1, 64)
		if sr, ok := new(big.Rat).SetString(short); ok && sr.Cmp(r) == 0 {
			return json.Number(short), nil
		}
	}
	return json.Number(r.FloatString(decimalPlaces(r.Denom()))), nil
}

// canonicalFloat handles floats decoded from TOML; it goes through the
// shortest spelling so 1e20 and 100000000000000000000 compare equal.
func canonicalFloat(f float64) (json.Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("non-finite number %v", f)
	}
	return canonicalNumber(strconv.FormatFloat(f, 'g', -1, 64))
}

var (
	bigTwo  = big.NewInt(2)
	bigFive = big.NewInt(5)
)

// decimalPlaces returns how many digits after the point a terminating
// fraction with denominator d needs. Decimal literals only ever have
// denominators of the form 2^a * 5^b; the answer is max(a, b).
func decimalPlaces(d *big.Int) int {
	n := new(big.Int).Set(d)
	q, m := new(big.Int), new(big.Int)
	count := func(p *big.Int) int {
		k := 0
		for n.Sign() != 0 {
			q.QuoRem(n, p, m)
			if m.Sign() != 0 {
				break
			}
			n.Set(q)
			k++
		}
		return k
	}
	twos := count(bigTwo)
	fives := count(bigFive)
	return max(twos, fives)
}
