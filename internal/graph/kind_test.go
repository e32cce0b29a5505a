package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompatible_Lattice(t *testing.T) {
	for _, a := range allKinds {
		for _, b := range allKinds {
			got := Compatible(a, b)

			var want bool
			switch {
			case a == KindExecution || b == KindExecution:
				want = a == b
			case a == b:
				want = true
			case a == KindAny || b == KindAny:
				want = true
			}

			assert.Equal(t, want, got, "Compatible(%s, %s)", a, b)
		}
	}
}

func TestCompatible_NoImplicitCoercion(t *testing.T) {
	assert.False(t, Compatible(KindNumber, KindString))
	assert.False(t, Compatible(KindString, KindNumber))
	assert.False(t, Compatible(KindBoolean, KindNumber))
	assert.False(t, Compatible(KindObject, KindArray))
}

func TestCompatible_AnyIsBidirectional(t *testing.T) {
	for _, k := range []PinKind{KindString, KindNumber, KindBoolean, KindObject, KindArray} {
		assert.True(t, Compatible(KindAny, k), "any -> %s", k)
		assert.True(t, Compatible(k, KindAny), "%s -> any", k)
	}
	assert.False(t, Compatible(KindAny, KindExecution))
	assert.False(t, Compatible(KindExecution, KindAny))
}

func TestIsValidKind(t *testing.T) {
	for _, k := range allKinds {
		assert.True(t, IsValidKind(k))
	}
	assert.False(t, IsValidKind("integer"))
	assert.False(t, IsValidKind(""))
}
