package entropy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeededIsReproducible(t *testing.T) {
	a, b := NewSeeded(42), NewSeeded(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestSeededDiffersAcrossSeeds(t *testing.T) {
	a, b := NewSeeded(1), NewSeeded(2)
	same := 0
	for i := 0; i < 20; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	assert.Less(t, same, 20)
}

func TestFloat64Range(t *testing.T) {
	for _, src := range []Source{NewSeeded(7), Crypto()} {
		for i := 0; i < 1000; i++ {
			v := src.Float64()
			assert.GreaterOrEqual(t, v, 0.0)
			assert.Less(t, v, 1.0)
		}
	}
}

func TestIntnRange(t *testing.T) {
	src := NewSeeded(3)
	for i := 0; i < 1000; i++ {
		v := src.Intn(5)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 5)
	}
}

func TestFixedCycles(t *testing.T) {
	f := &Fixed{Values: []float64{0.1, 0.9}}
	assert.Equal(t, 0.1, f.Float64())
	assert.Equal(t, 0.9, f.Float64())
	assert.Equal(t, 0.1, f.Float64())
	assert.Equal(t, 9, f.Intn(10)) // 0.9 * 10
}

func TestFromSeedZeroIsCrypto(t *testing.T) {
	_, ok := FromSeed(0).(cryptoSource)
	assert.True(t, ok)
	_, ok = FromSeed(5).(*Seeded)
	assert.True(t, ok)
}

func TestCryptoIntnRange(t *testing.T) {
	src := Crypto()
	for i := 0; i < 200; i++ {
		v := src.Intn(3)
		assert.GreaterOrEqual(t, v, 0)
		assert.Less(t, v, 3)
	}
}
