package typeir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/krizos/phpanalyze/typeir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCombineKeyedArraysPromotesMissingKeys pins the exact structure
// spec.md §4.1 prescribes: merging keyed arrays unifies known keys and
// promotes keys missing on one side to possibly-undefined.
func TestCombineKeyedArraysPromotesMissingKeys(t *testing.T) {
	left := typeir.FromAtomic(typeir.TKeyedArray{
		Entries: []typeir.KeyedEntry{
			{Key: typeir.ArrayKeyLit{IsString: true, StrKey: "id"}, Type: typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})},
			{Key: typeir.ArrayKeyLit{IsString: true, StrKey: "name"}, Type: typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral})},
		},
	})
	right := typeir.FromAtomic(typeir.TKeyedArray{
		Entries: []typeir.KeyedEntry{
			{Key: typeir.ArrayKeyLit{IsString: true, StrKey: "id"}, Type: typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})},
		},
	})

	merged := typeir.Combine(left, right, typeir.DefaultLiteralWideningThreshold)
	require.Len(t, merged.Atomics, 1)

	want := typeir.TKeyedArray{
		Entries: []typeir.KeyedEntry{
			{Key: typeir.ArrayKeyLit{IsString: true, StrKey: "id"}, Type: typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral})},
			{Key: typeir.ArrayKeyLit{IsString: true, StrKey: "name"}, Type: typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral}), PossiblyUndefined: true},
		},
	}
	if diff := cmp.Diff(want, merged.Atomics[0]); diff != "" {
		t.Errorf("merged keyed array mismatch (-want +got):\n%s", diff)
	}
}

func TestListIdRendersPrefixAndTail(t *testing.T) {
	in := newTestInterner()
	list := typeir.TList{
		Prefix:  []*typeir.TUnion{typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: 1})},
		Element: typeir.FromAtomic(typeir.TString{Shape: typeir.StringGeneral}),
	}
	assert.Equal(t, "list{int(1), string...}", list.Id(in))
}

func TestGenericArrayContainsKeyedArray(t *testing.T) {
	keyed := typeir.FromAtomic(typeir.TKeyedArray{
		Entries: []typeir.KeyedEntry{
			{Key: typeir.ArrayKeyLit{IntKey: 0}, Type: typeir.FromAtomic(typeir.TInt{Shape: typeir.IntLiteral, Literal: 5})},
		},
	})
	generic := typeir.FromAtomic(typeir.TGenericArray{
		Key:   typeir.FromAtomic(typeir.TArrayKey{}),
		Value: typeir.FromAtomic(typeir.TInt{Shape: typeir.IntGeneral}),
	})

	result := typeir.IsContainedBy(keyed, generic, typeir.ContainmentContext{})
	assert.True(t, result.Matched)

	reverse := typeir.IsContainedBy(generic, keyed, typeir.ContainmentContext{})
	assert.False(t, reverse.Matched)
}
