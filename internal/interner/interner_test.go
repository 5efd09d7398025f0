package interner_test

import (
	"sync"
	"testing"

	"github.com/krizos/phpanalyze/internal/interner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternInjectivity(t *testing.T) {
	in := interner.New()

	a1 := in.Intern("Foo")
	a2 := in.Intern("Foo")
	b := in.Intern("Bar")

	assert.Equal(t, a1, a2)
	assert.NotEqual(t, a1, b)
	assert.Equal(t, "Foo", in.Lookup(a1))
}

func TestLoweredIsCaseInsensitive(t *testing.T) {
	in := interner.New()

	upper := in.Intern("MyClass")
	lower := in.Intern("myclass")

	require.NotEqual(t, upper, lower, "distinct literal spellings keep distinct ids")
	assert.Equal(t, in.Lowered(upper), in.Lowered(lower))
	assert.Equal(t, "myclass", in.Lookup(in.Lowered(upper)))
}

func TestInternConcurrentSameString(t *testing.T) {
	in := interner.New()
	const n = 200

	ids := make([]interner.StringId, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer wg.Done()
			ids[i] = in.Intern("concurrent-identifier")
		}()
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestInternLower(t *testing.T) {
	in := interner.New()
	id := in.InternLower("Some\\Namespaced\\Class")
	assert.Equal(t, "some\\namespaced\\class", in.Lookup(id))
}
