package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolResetsOnPut(t *testing.T) {
	created := 0
	p := NewPool(func() *bytes.Buffer {
		created++
		return new(bytes.Buffer)
	}, WithReset(func(b *bytes.Buffer) { b.Reset() }))

	b := p.Get()
	b.WriteString("dirty")
	p.Put(b)
	assert.Zero(t, b.Len())

	// sync.Pool may drop values at any time, so only freshness is checked.
	assert.Zero(t, p.Get().Len())
	assert.GreaterOrEqual(t, created, 1)
}

func TestHotPoolGeneratesUpFront(t *testing.T) {
	created := 0
	NewPool(func() int {
		created++
		return created
	}, WithHot[int](3))
	assert.Equal(t, 3, created)
}
