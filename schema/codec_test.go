package schema

import (
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntCodecOverflow(t *testing.T) {
	tests := []struct {
		name    string
		raw     any
		want    int8
		wantErr bool
	}{
		{"fits", int64(12), 12, false},
		{"negative", int64(-128), -128, false},
		{"too large", int64(200), 0, true},
		{"from text", "-7", -7, false},
		{"from float", float64(3), 3, false},
		{"fractional", 3.5, 0, true},
		{"from bool", true, 1, false},
	}
	codec := IntCodec[int8]()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Decode(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnsignedCodec(t *testing.T) {
	codec := IntCodec[uint16]()
	assert.Equal(t, KindUint, codec.Kind)

	_, err := codec.Decode(int64(-1))
	assert.Error(t, err)

	v, err := codec.Decode(uint64(65535))
	require.NoError(t, err)
	assert.Equal(t, uint16(65535), v)

	big := IntCodec[uint64]()
	assert.Equal(t, uint64(math.MaxUint64), big.Encode(math.MaxUint64))
	assert.Equal(t, int64(5), big.Encode(5))
}

func TestBoolNormalization(t *testing.T) {
	for _, raw := range []any{true, int64(1), int32(5), uint8(1), "true", "1", "yes", []byte("t")} {
		b, err := toBool(raw)
		require.NoError(t, err, "%v", raw)
		assert.True(t, b, "%v", raw)
	}
	for _, raw := range []any{false, int64(0), int16(0), "false", "0", "no"} {
		b, err := toBool(raw)
		require.NoError(t, err, "%v", raw)
		assert.False(t, b, "%v", raw)
	}
	_, err := toBool("maybe")
	assert.Error(t, err)
}

func TestUUIDCodec(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	codec := UUIDCodec()

	fromText, err := codec.Decode(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, fromText)

	fromBinary, err := codec.Decode(id[:])
	require.NoError(t, err)
	assert.Equal(t, id, fromBinary)

	fromTextBytes, err := codec.Decode([]byte(id.String()))
	require.NoError(t, err)
	assert.Equal(t, id, fromTextBytes)

	_, err = codec.Decode(42)
	assert.Error(t, err)
	assert.True(t, codec.Zero(uuid.Nil))
}

func TestTimeCodec(t *testing.T) {
	codec := TimeCodec()
	want := time.Date(2024, 3, 9, 10, 30, 0, 0, time.UTC)

	got, err := codec.Decode("2024-03-09 10:30:00")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = codec.Decode([]byte("2024-03-09T10:30:00Z"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = codec.Decode("not a date")
	assert.Error(t, err)
}

func TestDecimalCodec(t *testing.T) {
	codec := DecimalCodec()

	d, err := codec.Decode("19.99")
	require.NoError(t, err)
	assert.Equal(t, "19.99", codec.Encode(d))

	d, err = codec.Decode(int64(4))
	require.NoError(t, err)
	assert.Equal(t, "4", codec.Encode(d))

	d, err = codec.Decode(apd.New(125, -2))
	require.NoError(t, err)
	assert.Equal(t, "1.25", codec.Encode(d))
}

func TestStringEnumCodec(t *testing.T) {
	type Color string
	codec := StringEnumCodec[Color]("Red", "Green")

	v, err := codec.Decode("green")
	require.NoError(t, err)
	assert.Equal(t, Color("Green"), v)

	v, err = codec.Decode(int64(0))
	require.NoError(t, err)
	assert.Equal(t, Color("Red"), v)

	_, err = codec.Decode("blue")
	assert.Error(t, err)
	_, err = codec.Decode(int64(5))
	assert.Error(t, err)
}

func TestStringCodec(t *testing.T) {
	codec := StringCodec[string]()
	for raw, want := range map[any]string{
		int64(7): "7",
		"abc":    "abc",
		true:     "true",
	} {
		got, err := codec.Decode(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCoerce(t *testing.T) {
	v, err := Coerce(KindInt, "15")
	require.NoError(t, err)
	assert.Equal(t, int64(15), v)

	v, err = Coerce(KindEnum, "Live")
	require.NoError(t, err)
	assert.Equal(t, "Live", v)

	v, err = Coerce(KindString, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("UUID")
	require.True(t, ok)
	assert.Equal(t, KindUUID, k)

	k, ok = ParseKind("bigint")
	require.True(t, ok)
	assert.Equal(t, KindInt, k)

	_, ok = ParseKind("geometry")
	assert.False(t, ok)
}
