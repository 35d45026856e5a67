package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromAnyRoundTrip(t *testing.T) {
	raw := map[string]interface{}{
		"name":  "Alice",
		"age":   float64(30),
		"admin": true,
		"tags":  []interface{}{"a", "b"},
		"addr":  nil,
	}

	v := FromAny(raw)
	require.Equal(t, KindObject, v.Kind())

	name, ok := v.Get("name")
	require.True(t, ok)
	s, isStr := name.String()
	require.True(t, isStr)
	require.Equal(t, "Alice", s)

	back := ToAny(v)
	require.Equal(t, raw, back)
}

func TestWithFieldDoesNotMutateOriginal(t *testing.T) {
	base := Object(map[string]Value{"x": Number(1)})
	next := base.WithField("y", Number(2))

	_, hasY := base.Get("y")
	require.False(t, hasY)

	y, ok := next.Get("y")
	require.True(t, ok)
	n, _ := y.Number()
	require.Equal(t, 2.0, n)
}

func TestEqual(t *testing.T) {
	a := Array([]Value{Number(1), String("x")})
	b := Array([]Value{Number(1), String("x")})
	c := Array([]Value{Number(1), String("y")})

	require.True(t, Equal(a, b))
	require.False(t, Equal(a, c))
}

func TestMarshalJSON(t *testing.T) {
	v := Object(map[string]Value{
		"n": Number(1.5),
		"s": String("hi"),
		"b": Bool(true),
		"z": Null(),
	})

	out, err := json.Marshal(v)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(out, &decoded))
	require.True(t, Equal(v, decoded))
}
