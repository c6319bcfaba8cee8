package crow

import (
	"testing"

	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
	"github.com/packetzero/crow/section"
	"github.com/stretchr/testify/require"
)

func encodePeople(t *testing.T) []byte {
	t.Helper()

	enc, err := NewEncoder()
	require.NoError(t, err)
	defer enc.Close()

	name := NamedField(TypeString, "name")
	age := NamedField(TypeInt32, "age")
	active := NamedField(TypeUint8, "active")

	people := []struct {
		name   string
		age    int32
		active bool
	}{
		{"bob", 23, true},
		{"jerry", 58, false},
		{"linda", 33, true},
	}
	for i, p := range people {
		if i > 0 {
			enc.StartRow()
		}
		require.NoError(t, enc.PutString(name, p.name))
		require.NoError(t, enc.PutInt32(age, p.age))
		require.NoError(t, enc.PutBool(active, p.active))
	}

	return append([]byte(nil), enc.Bytes()...)
}

func TestEncodeDecode(t *testing.T) {
	encoded := encodePeople(t)

	dec := NewDecoder(encoded)
	rows := NewRowCollector()
	require.Equal(t, 3, dec.Decode(rows))
	require.NoError(t, dec.Err())
	require.Len(t, rows.Rows, 3)
	require.Len(t, dec.Fields(), 3)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	encoded := encodePeople(t)

	for _, ct := range []format.CompressionType{
		CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4,
	} {
		t.Run(ct.String(), func(t *testing.T) {
			sealed, err := Seal(encoded, ct)
			require.NoError(t, err)

			restored, err := Open(sealed)
			require.NoError(t, err)
			require.Equal(t, encoded, restored)

			// the restored stream still decodes
			dec := NewDecoder(restored)
			require.Equal(t, 3, dec.Decode(NewRowCollector()))
			require.NoError(t, dec.Err())
		})
	}
}

func TestSealOpen_EmptyStream(t *testing.T) {
	sealed, err := Seal(nil, CompressionZstd)
	require.NoError(t, err)

	restored, err := Open(sealed)
	require.NoError(t, err)
	require.Empty(t, restored)
}

func TestOpen_CorruptedPayload(t *testing.T) {
	sealed, err := Seal(encodePeople(t), CompressionS2)
	require.NoError(t, err)

	sealed[len(sealed)-1] ^= 0xff
	_, err = Open(sealed)
	require.ErrorIs(t, err, errs.ErrChecksumMismatch)
}

func TestOpen_TruncatedEnvelope(t *testing.T) {
	sealed, err := Seal(encodePeople(t), CompressionLZ4)
	require.NoError(t, err)

	// header cut short
	_, err = Open(sealed[:10])
	require.ErrorIs(t, err, errs.ErrInvalidHeaderSize)

	// payload cut short
	_, err = Open(sealed[:len(sealed)-3])
	require.ErrorIs(t, err, errs.ErrSizeMismatch)
}

func TestSeal_IncompressibleStoredRaw(t *testing.T) {
	// deterministic high-entropy bytes no block codec can shrink
	data := make([]byte, 4096)
	state := uint64(0x9e3779b97f4a7c15)
	for i := range data {
		state ^= state << 13
		state ^= state >> 7
		state ^= state << 17
		data[i] = byte(state)
	}

	sealed, err := Seal(data, CompressionLZ4)
	require.NoError(t, err)

	h, err := section.ParseEnvelopeHeader(sealed)
	require.NoError(t, err)
	require.Equal(t, CompressionNone, h.CompressionType)

	restored, err := Open(sealed)
	require.NoError(t, err)
	require.Equal(t, data, restored)
}

func TestSeal_PayloadTooLarge(t *testing.T) {
	_, err := Seal(make([]byte, 32*1024*1024+1), CompressionNone)
	require.ErrorIs(t, err, errs.ErrPayloadTooLarge)
}

func TestFieldID(t *testing.T) {
	require.NotZero(t, FieldID("name"))
	require.Equal(t, FieldID("name"), FieldID("name"))
	require.NotEqual(t, FieldID("name"), FieldID("age"))
}
