package relational

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/replicator/replicator/internal/model"
)

func TestCoerceNull(t *testing.T) {
	require.True(t, coerce(nil, model.FieldText).IsNull())
}

func TestCoerceBoolFromTinyint(t *testing.T) {
	v := coerce(int64(1), model.FieldBool)
	require.Equal(t, model.KindBool, v.Kind)
	require.True(t, v.Bool)
}

func TestCoerceDatetimeFallsBackToTextOnParseFailure(t *testing.T) {
	v := coerce([]byte("not-a-date"), model.FieldDatetime)
	require.Equal(t, model.KindText, v.Kind)
	require.Equal(t, "not-a-date", v.Text)
}

func TestCoerceDatetimeParsesMySQLFormat(t *testing.T) {
	v := coerce([]byte("2024-01-02 03:04:05"), model.FieldDatetime)
	require.Equal(t, model.KindDatetime, v.Kind)
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), v.Time)
}

func TestCoerceBinaryPassthrough(t *testing.T) {
	v := coerce([]byte{0x01, 0x02}, model.FieldBinary)
	require.Equal(t, model.KindBinary, v.Kind)
	require.Equal(t, []byte{0x01, 0x02}, v.Binary)
}

func TestPkToAnyVariants(t *testing.T) {
	require.Equal(t, int64(5), pkToAny(model.IntValue(5)))
	require.Equal(t, "x", pkToAny(model.TextValue("x")))
	require.Nil(t, pkToAny(model.NullValue()))
}
