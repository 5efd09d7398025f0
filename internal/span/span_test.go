package span_test

import (
	"testing"

	"github.com/krizos/phpanalyze/internal/span"
	"github.com/stretchr/testify/assert"
)

func TestJoin(t *testing.T) {
	a := span.New(1, 10, 20)
	b := span.New(1, 15, 30)
	joined := span.Join(a, b)

	assert.Equal(t, uint32(10), joined.Start.Offset)
	assert.Equal(t, uint32(30), joined.End.Offset)
}

func TestContains(t *testing.T) {
	s := span.New(1, 10, 20)
	assert.True(t, s.Contains(span.Position{Source: 1, Offset: 10}))
	assert.True(t, s.Contains(span.Position{Source: 1, Offset: 19}))
	assert.False(t, s.Contains(span.Position{Source: 1, Offset: 20}))
	assert.False(t, s.Contains(span.Position{Source: 2, Offset: 15}))
}

func TestPositionLess(t *testing.T) {
	p1 := span.Position{Source: 1, Offset: 5}
	p2 := span.Position{Source: 1, Offset: 10}
	p3 := span.Position{Source: 2, Offset: 0}

	assert.True(t, p1.Less(p2))
	assert.True(t, p2.Less(p3))
	assert.False(t, p2.Less(p1))
}
