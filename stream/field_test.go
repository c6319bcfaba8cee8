package stream

import (
	"fmt"
	"testing"

	"github.com/packetzero/crow/errs"
	"github.com/packetzero/crow/format"
	"github.com/stretchr/testify/require"
)

func TestFieldDef_Valid(t *testing.T) {
	require.True(t, NewField(format.TypeUint32, 1).Valid())
	require.True(t, NewNamedField(format.TypeString, "n").Valid())
	require.False(t, FieldDef{Type: format.TypeUint32}.Valid())
	require.False(t, FieldDef{ID: 1}.Valid())
	require.False(t, FieldDef{Type: format.CrowType(13), ID: 1}.Valid())
}

func TestFieldRegistry_IdentityRules(t *testing.T) {
	reg := newFieldRegistry()

	a, err := reg.add(NewFieldSub(format.TypeUint32, 1, 0), 0)
	require.NoError(t, err)
	b, err := reg.add(NewFieldSub(format.TypeUint32, 1, 2), 0)
	require.NoError(t, err)
	c, err := reg.add(NewNamedField(format.TypeString, "x"), 0)
	require.NoError(t, err)

	// same column iff (id, sub-id) match when id > 0, else name matches
	require.Same(t, a, reg.lookup(NewField(format.TypeUint32, 1)))
	require.Same(t, b, reg.lookup(NewFieldSub(format.TypeUint32, 1, 2)))
	require.Same(t, c, reg.lookup(NewNamedField(format.TypeString, "x")))
	require.Nil(t, reg.lookup(NewNamedField(format.TypeString, "y")))
	require.Nil(t, reg.lookup(NewField(format.TypeUint32, 99)))
}

func TestFieldRegistry_MonotonicIndices(t *testing.T) {
	reg := newFieldRegistry()

	for i := 0; i < 10; i++ {
		f, err := reg.add(NewNamedField(format.TypeUint8, fmt.Sprintf("f%d", i)), 0)
		require.NoError(t, err)
		require.Equal(t, uint8(i), f.Index)
	}
}

func TestFieldRegistry_Limit(t *testing.T) {
	reg := newFieldRegistry()

	for i := 0; i < 127; i++ {
		_, err := reg.add(NewField(format.TypeUint8, uint32(i+1)), 0)
		require.NoError(t, err)
	}

	_, err := reg.add(NewField(format.TypeUint8, 200), 0)
	require.ErrorIs(t, err, errs.ErrFieldLimit)
}

func TestFieldRegistry_Clear(t *testing.T) {
	reg := newFieldRegistry()

	_, err := reg.add(NewNamedField(format.TypeUint8, "a"), 0)
	require.NoError(t, err)

	reg.clear()
	require.Empty(t, reg.fields)
	require.Nil(t, reg.lookup(NewNamedField(format.TypeUint8, "a")))

	f, err := reg.add(NewNamedField(format.TypeUint8, "a"), 0)
	require.NoError(t, err)
	require.Equal(t, uint8(0), f.Index)
}
