package schema

import (
	"encoding/hex"
	"math"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Key is a normalized, comparable representation of a key value. Integers of
// any width normalize to the same Key, so a child's int32 foreign key matches
// its parent's int64 primary key.
type Key struct {
	tag byte
	s   string
}

// String renders the key for diagnostics.
func (k Key) String() string {
	if k.tag == 0 {
		return "<nil>"
	}
	return string(k.tag) + ":" + k.s
}

// KeyOf normalizes v. ok is false for nil.
func KeyOf(v any) (Key, bool) {
	switch x := v.(type) {
	case nil:
		return Key{}, false
	case int:
		return intKey(int64(x)), true
	case int8:
		return intKey(int64(x)), true
	case int16:
		return intKey(int64(x)), true
	case int32:
		return intKey(int64(x)), true
	case int64:
		return intKey(x), true
	case uint:
		return uintKey(uint64(x)), true
	case uint8:
		return uintKey(uint64(x)), true
	case uint16:
		return uintKey(uint64(x)), true
	case uint32:
		return uintKey(uint64(x)), true
	case uint64:
		return uintKey(x), true
	case float32:
		return floatKey(float64(x)), true
	case float64:
		return floatKey(x), true
	case string:
		return Key{tag: 's', s: x}, true
	case []byte:
		if x == nil {
			return Key{}, false
		}
		return Key{tag: 'b', s: hex.EncodeToString(x)}, true
	case bool:
		return Key{tag: 'o', s: strconv.FormatBool(x)}, true
	case uuid.UUID:
		return Key{tag: 'g', s: x.String()}, true
	case time.Time:
		return Key{tag: 't', s: x.UTC().Format(time.RFC3339Nano)}, true
	case apd.Decimal:
		return decimalKey(&x), true
	case *apd.Decimal:
		if x == nil {
			return Key{}, false
		}
		return decimalKey(x), true
	}
	return Key{tag: 'v', s: toString(v)}, true
}

func intKey(n int64) Key {
	return Key{tag: 'i', s: strconv.FormatInt(n, 10)}
}

func uintKey(n uint64) Key {
	if n <= math.MaxInt64 {
		return intKey(int64(n))
	}
	return Key{tag: 'u', s: strconv.FormatUint(n, 10)}
}

func floatKey(f float64) Key {
	if f == math.Trunc(f) && f >= math.MinInt64 && f <= math.MaxInt64 {
		return intKey(int64(f))
	}
	return Key{tag: 'f', s: strconv.FormatFloat(f, 'g', -1, 64)}
}

func decimalKey(d *apd.Decimal) Key {
	var r apd.Decimal
	r.Reduce(d)
	if n, err := r.Int64(); err == nil {
		return intKey(n)
	}
	return Key{tag: 'd', s: r.Text('f')}
}
