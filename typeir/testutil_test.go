package typeir_test

import "github.com/krizos/phpanalyze/internal/interner"

func newTestInterner() *interner.Interner {
	return interner.New()
}

// fakeOracle is a minimal ClassLikeOracle for containment/expansion tests:
// it treats subtyping as a flat parent->children adjacency list and every
// template parameter as invariant unless explicitly marked covariant.
type fakeOracle struct {
	subtypes   map[interner.StringId]map[interner.StringId]bool
	covariant  map[interner.StringId]map[int]bool
}

func newFakeOracle() *fakeOracle {
	return &fakeOracle{
		subtypes:  map[interner.StringId]map[interner.StringId]bool{},
		covariant: map[interner.StringId]map[int]bool{},
	}
}

func (o *fakeOracle) addSubtype(child, parent interner.StringId) {
	if o.subtypes[child] == nil {
		o.subtypes[child] = map[interner.StringId]bool{}
	}
	o.subtypes[child][parent] = true
}

func (o *fakeOracle) markCovariant(class interner.StringId, index int) {
	if o.covariant[class] == nil {
		o.covariant[class] = map[int]bool{}
	}
	o.covariant[class][index] = true
}

func (o *fakeOracle) IsSameOrSubtype(child, parent interner.StringId) bool {
	if child == parent {
		return true
	}
	return o.subtypes[child][parent]
}

func (o *fakeOracle) IsCovariantParamAt(className interner.StringId, index int) bool {
	return o.covariant[className][index]
}
