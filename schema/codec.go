package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unsafe"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Integer is the set of integer member types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Float is the set of floating point member types.
type Float interface {
	~float32 | ~float64
}

// Codec converts between a member type F and raw storage values.
type Codec[F any] struct {
	Kind   Kind
	Decode func(raw any) (F, error)
	Encode func(F) any
	Zero   func(F) bool
}

// Field maps a member reached through field using codec.
func Field[T, F any](member string, codec Codec[F], field func(*T) *F, opts ...Option) Column[T] {
	c := newColumn[T](member, codec.Kind, opts)
	c.get = func(e *T) any { return codec.Encode(*field(e)) }
	c.set = func(e *T, raw any) error {
		v, err := codec.Decode(raw)
		if err != nil {
			return err
		}
		*field(e) = v
		return nil
	}
	c.isZero = func(e *T) bool { return codec.Zero(*field(e)) }
	return c
}

// Nullable maps a pointer member. A nil pointer reads as NULL and a NULL
// raw value clears the pointer.
func Nullable[T, F any](member string, codec Codec[F], field func(*T) **F, opts ...Option) Column[T] {
	c := newColumn[T](member, codec.Kind, opts)
	c.nullable = true
	c.get = func(e *T) any {
		p := *field(e)
		if p == nil {
			return nil
		}
		return codec.Encode(*p)
	}
	c.set = func(e *T, raw any) error {
		if raw == nil {
			*field(e) = nil
			return nil
		}
		v, err := codec.Decode(raw)
		if err != nil {
			return err
		}
		*field(e) = &v
		return nil
	}
	c.isZero = func(e *T) bool { return *field(e) == nil }
	return c
}

// Accessor maps a member through explicit getter and setter closures, for
// members that are not addressable as a single field.
func Accessor[T, F any](member string, codec Codec[F], get func(*T) F, set func(*T, F), opts ...Option) Column[T] {
	c := newColumn[T](member, codec.Kind, opts)
	c.get = func(e *T) any { return codec.Encode(get(e)) }
	c.set = func(e *T, raw any) error {
		v, err := codec.Decode(raw)
		if err != nil {
			return err
		}
		set(e, v)
		return nil
	}
	c.isZero = func(e *T) bool { return codec.Zero(get(e)) }
	return c
}

// Int maps an integer member.
func Int[T any, F Integer](member string, field func(*T) *F, opts ...Option) Column[T] {
	return Field(member, IntCodec[F](), field, opts...)
}

// FloatField maps a floating point member.
func FloatField[T any, F Float](member string, field func(*T) *F, opts ...Option) Column[T] {
	return Field(member, FloatCodec[F](), field, opts...)
}

// String maps a string member.
func String[T any, F ~string](member string, field func(*T) *F, opts ...Option) Column[T] {
	return Field(member, StringCodec[F](), field, opts...)
}

// Bool maps a boolean member.
func Bool[T any, F ~bool](member string, field func(*T) *F, opts ...Option) Column[T] {
	return Field(member, BoolCodec[F](), field, opts...)
}

// Time maps a time.Time member.
func Time[T any](member string, field func(*T) *time.Time, opts ...Option) Column[T] {
	return Field(member, TimeCodec(), field, opts...)
}

// UUID maps a uuid.UUID member.
func UUID[T any](member string, field func(*T) *uuid.UUID, opts ...Option) Column[T] {
	return Field(member, UUIDCodec(), field, opts...)
}

// Bytes maps a []byte member.
func Bytes[T any](member string, field func(*T) *[]byte, opts ...Option) Column[T] {
	return Field(member, BytesCodec(), field, opts...)
}

// Decimal maps an apd.Decimal member.
func Decimal[T any](member string, field func(*T) *apd.Decimal, opts ...Option) Column[T] {
	return Field(member, DecimalCodec(), field, opts...)
}

// Enum maps an integer-backed enum member. names lists the symbolic names
// accepted when the stored value is text.
func Enum[T any, F Integer](member string, field func(*T) *F, names map[F]string, opts ...Option) Column[T] {
	return Field(member, EnumCodec(names), field, opts...)
}

// IntCodec converts integers with overflow checking.
func IntCodec[F Integer]() Codec[F] {
	var zero F
	signed := zero-1 < zero
	kind := KindInt
	if !signed {
		kind = KindUint
	}
	return Codec[F]{
		Kind:   kind,
		Decode: decodeInteger[F],
		Encode: func(v F) any {
			if signed {
				return int64(v)
			}
			if uint64(v) <= math.MaxInt64 {
				return int64(v)
			}
			return uint64(v)
		},
		Zero: func(v F) bool { return v == 0 },
	}
}

func decodeInteger[F Integer](raw any) (F, error) {
	var zero F
	switch v := raw.(type) {
	case F:
		return v, nil
	case uint64:
		f := F(v)
		if uint64(f) != v || f < zero {
			return zero, overflowError(raw, zero)
		}
		return f, nil
	case uint:
		return decodeInteger[F](uint64(v))
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	}
	n, err := toInt64(raw)
	if err != nil {
		if u, uerr := toUint64(raw); uerr == nil {
			return decodeInteger[F](u)
		}
		return zero, err
	}
	f := F(n)
	if int64(f) != n || (n < 0) != (f < zero) {
		return zero, overflowError(raw, zero)
	}
	return f, nil
}

func overflowError(raw, target any) error {
	return fmt.Errorf("value %v overflows %T", raw, target)
}

func toInt64(raw any) (int64, error) {
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows int64", v)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) || v > math.MaxInt64 || v < math.MinInt64 {
			return 0, fmt.Errorf("cannot convert %v to an integer", v)
		}
		return int64(v), nil
	case float32:
		return toInt64(float64(v))
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
	case apd.Decimal:
		return v.Int64()
	case *apd.Decimal:
		return v.Int64()
	}
	return 0, fmt.Errorf("cannot convert %T to an integer", raw)
}

func toUint64(raw any) (uint64, error) {
	switch v := raw.(type) {
	case uint64:
		return v, nil
	case string:
		return strconv.ParseUint(strings.TrimSpace(v), 10, 64)
	case []byte:
		return strconv.ParseUint(strings.TrimSpace(string(v)), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %T to an unsigned integer", raw)
}

// FloatCodec converts numeric and textual values to floats.
func FloatCodec[F Float]() Codec[F] {
	var zero F
	bits := unsafe.Sizeof(zero) * 8
	return Codec[F]{
		Kind: KindFloat,
		Decode: func(raw any) (F, error) {
			f, err := toFloat64(raw, int(bits))
			return F(f), err
		},
		Encode: func(v F) any { return float64(v) },
		Zero:   func(v F) bool { return v == 0 },
	}
}

func toFloat64(raw any, bits int) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(v), bits)
	case []byte:
		return strconv.ParseFloat(strings.TrimSpace(string(v)), bits)
	case apd.Decimal:
		return v.Float64()
	case *apd.Decimal:
		return v.Float64()
	}
	if n, err := toInt64(raw); err == nil {
		return float64(n), nil
	}
	if u, err := toUint64(raw); err == nil {
		return float64(u), nil
	}
	return 0, fmt.Errorf("cannot convert %T to a float", raw)
}

// StringCodec converts any scalar to its textual form.
func StringCodec[F ~string]() Codec[F] {
	return Codec[F]{
		Kind: KindString,
		Decode: func(raw any) (F, error) {
			return F(toString(raw)), nil
		},
		Encode: func(v F) any { return string(v) },
		Zero:   func(v F) bool { return v == "" },
	}
}

func toString(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(raw)
}

// BoolCodec normalizes boolean, numeric and textual truth values.
func BoolCodec[F ~bool]() Codec[F] {
	return Codec[F]{
		Kind: KindBool,
		Decode: func(raw any) (F, error) {
			b, err := toBool(raw)
			return F(b), err
		},
		Encode: func(v F) any { return bool(v) },
		Zero:   func(v F) bool { return !bool(v) },
	}
}

func toBool(raw any) (bool, error) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return parseBool(v)
	case []byte:
		return parseBool(string(v))
	}
	if n, err := toInt64(raw); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("cannot convert %T to a bool", raw)
}

func parseBool(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if b, err := strconv.ParseBool(s); err == nil {
		return b, nil
	}
	switch strings.ToLower(s) {
	case "y", "yes", "on":
		return true, nil
	case "n", "no", "off":
		return false, nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n != 0, nil
	}
	return false, fmt.Errorf("cannot parse %q as a bool", s)
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// TimeCodec parses textual timestamps in the common storage layouts.
func TimeCodec() Codec[time.Time] {
	return Codec[time.Time]{
		Kind:   KindTime,
		Decode: toTime,
		Encode: func(v time.Time) any { return v },
		Zero:   func(v time.Time) bool { return v.IsZero() },
	}
}

func toTime(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	}
	return time.Time{}, fmt.Errorf("cannot convert %T to a time", raw)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a time", s)
}

// UUIDCodec parses UUIDs from text or 16-byte binary.
func UUIDCodec() Codec[uuid.UUID] {
	return Codec[uuid.UUID]{
		Kind:   KindUUID,
		Decode: toUUID,
		Encode: func(v uuid.UUID) any { return v.String() },
		Zero:   func(v uuid.UUID) bool { return v == uuid.Nil },
	}
}

func toUUID(raw any) (uuid.UUID, error) {
	switch v := raw.(type) {
	case uuid.UUID:
		return v, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case string:
		return uuid.Parse(v)
	case []byte:
		if len(v) == 16 {
			return uuid.FromBytes(v)
		}
		return uuid.ParseBytes(v)
	}
	return uuid.Nil, fmt.Errorf("cannot convert %T to a uuid", raw)
}

// BytesCodec copies binary values.
func BytesCodec() Codec[[]byte] {
	return Codec[[]byte]{
		Kind: KindBytes,
		Decode: func(raw any) ([]byte, error) {
			switch v := raw.(type) {
			case []byte:
				return append([]byte(nil), v...), nil
			case string:
				return []byte(v), nil
			}
			return nil, fmt.Errorf("cannot convert %T to bytes", raw)
		},
		Encode: func(v []byte) any { return v },
		Zero:   func(v []byte) bool { return len(v) == 0 },
	}
}

// DecimalCodec converts to arbitrary-precision decimals. Values are bound
// as text so no precision is lost on the way to the driver.
func DecimalCodec() Codec[apd.Decimal] {
	return Codec[apd.Decimal]{
		Kind:   KindDecimal,
		Decode: toDecimal,
		Encode: func(v apd.Decimal) any { return v.String() },
		Zero:   func(v apd.Decimal) bool { return v.IsZero() },
	}
}

func toDecimal(raw any) (apd.Decimal, error) {
	var d apd.Decimal
	switch v := raw.(type) {
	case apd.Decimal:
		d.Set(&v)
		return d, nil
	case *apd.Decimal:
		d.Set(v)
		return d, nil
	case string:
		p, _, err := apd.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return d, err
		}
		d.Set(p)
		return d, nil
	case []byte:
		return toDecimal(string(v))
	case float64:
		if _, err := d.SetFloat64(v); err != nil {
			return d, err
		}
		return d, nil
	case float32:
		return toDecimal(float64(v))
	}
	if n, err := toInt64(raw); err == nil {
		d.SetInt64(n)
		return d, nil
	}
	return d, fmt.Errorf("cannot convert %T to a decimal", raw)
}

// EnumCodec converts integer-backed enums from their number or, ignoring
// case, their symbolic name. Values are stored as numbers.
func EnumCodec[F Integer](names map[F]string) Codec[F] {
	byName := make(map[string]F, len(names))
	for v, n := range names {
		byName[Fold(n)] = v
	}
	return Codec[F]{
		Kind: KindEnum,
		Decode: func(raw any) (F, error) {
			var s string
			switch v := raw.(type) {
			case string:
				s = v
			case []byte:
				s = string(v)
			default:
				return decodeInteger[F](raw)
			}
			if v, ok := byName[Fold(strings.TrimSpace(s))]; ok {
				return v, nil
			}
			if n, err := decodeInteger[F](s); err == nil {
				return n, nil
			}
			var zero F
			return zero, fmt.Errorf("%q is not a member of %T", s, zero)
		},
		Encode: func(v F) any { return IntCodec[F]().Encode(v) },
		Zero:   func(v F) bool { return v == 0 },
	}
}

// StringEnumCodec converts string-backed enums. Text matches a member
// ignoring case; a number selects the member at that position.
func StringEnumCodec[F ~string](values ...F) Codec[F] {
	return Codec[F]{
		Kind: KindEnum,
		Decode: func(raw any) (F, error) {
			var zero F
			s, isText := raw.(string)
			if b, ok := raw.([]byte); ok {
				s, isText = string(b), true
			}
			if isText {
				want := Fold(strings.TrimSpace(s))
				for _, v := range values {
					if Fold(string(v)) == want {
						return v, nil
					}
				}
				return zero, fmt.Errorf("%q is not a member of %T", s, zero)
			}
			n, err := toInt64(raw)
			if err != nil {
				return zero, err
			}
			if n < 0 || n >= int64(len(values)) {
				return zero, fmt.Errorf("%d is not a member of %T", n, zero)
			}
			return values[n], nil
		},
		Encode: func(v F) any { return string(v) },
		Zero:   func(v F) bool { return v == "" },
	}
}

// Coerce converts raw to the canonical Go type of kind: int64, uint64,
// float64, string, bool, time.Time, uuid.UUID, []byte or apd.Decimal.
// Enums coerce to int64 when numeric and to string otherwise.
func Coerce(kind Kind, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	switch kind {
	case KindBool:
		return toBool(raw)
	case KindInt:
		return toInt64(raw)
	case KindUint:
		if n, err := toInt64(raw); err == nil && n >= 0 {
			return uint64(n), nil
		}
		return toUint64(raw)
	case KindFloat:
		return toFloat64(raw, 64)
	case KindString:
		return toString(raw), nil
	case KindDecimal:
		d, err := toDecimal(raw)
		if err != nil {
			return nil, err
		}
		return d, nil
	case KindTime:
		return toTime(raw)
	case KindUUID:
		return toUUID(raw)
	case KindBytes:
		return BytesCodec().Decode(raw)
	case KindEnum:
		if n, err := toInt64(raw); err == nil {
			return n, nil
		}
		return toString(raw), nil
	}
	return nil, fmt.Errorf("unknown column kind %v", kind)
}
