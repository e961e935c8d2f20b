package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, s string) Node {
	t.Helper()
	var n Node
	require.NoError(t, json.Unmarshal([]byte(s), &n))
	return n
}

func TestApply_ReplacesLeaf(t *testing.T) {
	tree := mustJSON(t, `{"hero":{"title":"Hello"}}`)

	got := Apply(tree, PathOf("hero", "title"), String("World"))

	assert.Equal(t, `{"hero":{"title":"World"}}`, got.String())
	assert.Equal(t, `{"hero":{"title":"Hello"}}`, tree.String(), "input must not change")
}

func TestApply_EmptyPathReplacesTree(t *testing.T) {
	tree := mustJSON(t, `{"a":1}`)
	value := mustJSON(t, `{"b":[1,2]}`)

	got := Apply(tree, Path{}, value)

	assert.True(t, got.Equal(value))
	assert.Equal(t, `{"a":1}`, tree.String())
}

func TestApply_CreatesContainersByLookahead(t *testing.T) {
	t.Run("pads array and creates object", func(t *testing.T) {
		tree := mustJSON(t, `{"list":[]}`)
		got := Apply(tree, PathOf("list", 2, "name"), String("X"))
		assert.Equal(t, `{"list":["","",{"name":"X"}]}`, got.String())
	})

	t.Run("missing intermediate array", func(t *testing.T) {
		got := Apply(Object(), PathOf("rows", 0, "cells", 1), String("b"))
		assert.Equal(t, `{"rows":[{"cells":["","b"]}]}`, got.String())
	})

	t.Run("missing intermediate object", func(t *testing.T) {
		got := Apply(Object(), PathOf("a", "b", "c"), Bool(true))
		assert.Equal(t, `{"a":{"b":{"c":true}}}`, got.String())
	})
}

func TestApply_IndexAboveMax(t *testing.T) {
	tree := mustJSON(t, `{"list":["a"]}`)

	got := Apply(tree, PathOf("list", MaxIndex+1), String("x"))
	assert.Equal(t, `{"list":["a"]}`, got.String())

	got = Apply(tree, Path{"list", "99999999999999999999", "name"}, String("x"))
	assert.Equal(t, `{"list":["a"]}`, got.String())

	got = Apply(tree, PathOf("list", MaxIndex), String("x"))
	list, ok := got.Get("list")
	require.True(t, ok)
	assert.Equal(t, MaxIndex+1, list.Len())
}

func TestPath_Validate(t *testing.T) {
	assert.NoError(t, PathOf("list", MaxIndex, "name").Validate())
	assert.NoError(t, Path{}.Validate())
	assert.ErrorIs(t, PathOf("list", MaxIndex+1).Validate(), ErrIndexOutOfRange)
	assert.ErrorIs(t, Path{"list", "1234567890"}.Validate(), ErrIndexOutOfRange)
}

func TestApply_ConflictingNodeIsOverwritten(t *testing.T) {
	t.Run("index into object", func(t *testing.T) {
		tree := mustJSON(t, `{"list":{"k":"v"}}`)
		got := Apply(tree, PathOf("list", 0), String("x"))
		assert.Equal(t, `{"list":["x"]}`, got.String())
	})

	t.Run("key into array", func(t *testing.T) {
		tree := mustJSON(t, `{"hero":["a"]}`)
		got := Apply(tree, PathOf("hero", "title"), String("x"))
		assert.Equal(t, `{"hero":{"title":"x"}}`, got.String())
	})

	t.Run("key into string", func(t *testing.T) {
		tree := mustJSON(t, `{"hero":"flat"}`)
		got := Apply(tree, PathOf("hero", "title"), String("x"))
		assert.Equal(t, `{"hero":{"title":"x"}}`, got.String())
	})
}

func TestApply_PreservesKeyOrder(t *testing.T) {
	tree := mustJSON(t, `{"z":1,"a":2,"m":3}`)
	got := Apply(tree, PathOf("a"), Number(5))
	assert.Equal(t, []string{"z", "a", "m"}, got.Keys())
}

func TestApply_Properties(t *testing.T) {
	trees := []string{
		`{}`,
		`{"hero":{"title":"Hello","image":"/a.png"}}`,
		`{"list":[{"name":"a"},{"name":"b"}],"count":3}`,
		`{"list":"not a list"}`,
		`[]`,
	}
	paths := []Path{
		{},
		PathOf("hero"),
		PathOf("hero", "title"),
		PathOf("list", 1, "name"),
		PathOf("list", 4),
		PathOf("deep", "x", 0, "y"),
	}
	values := []Node{String("v"), Number(1), Null(), mustJSON(t, `{"n":[1,{"m":2}]}`)}

	for _, ts := range trees {
		for _, p := range paths {
			for _, v := range values {
				tree := mustJSON(t, ts)
				before := tree.String()

				once := Apply(tree, p, v)
				got, ok := Read(once, p)
				require.True(t, ok, "read back %s in %s", p, once)
				assert.True(t, got.Equal(v), "round trip %s in %s", p, ts)

				assert.Equal(t, before, tree.String(), "input mutated by %s", p)

				twice := Apply(once, p, v)
				assert.True(t, twice.Equal(once), "apply is not idempotent for %s on %s", p, ts)
			}
		}
	}
}

func TestApply_ValueIsCopied(t *testing.T) {
	value := mustJSON(t, `{"name":"a"}`)
	tree := Apply(Object(), PathOf("item"), value)
	tree2 := Apply(tree, PathOf("item", "name"), String("b"))

	assert.Equal(t, `{"name":"a"}`, value.String())
	assert.Equal(t, `{"item":{"name":"a"}}`, tree.String())
	assert.Equal(t, `{"item":{"name":"b"}}`, tree2.String())
}

func TestRead(t *testing.T) {
	tree := mustJSON(t, `{"hero":{"title":"Hello"},"list":[{"name":"a"}],"n":5}`)

	tests := []struct {
		name string
		path Path
		want string
		ok   bool
	}{
		{"root", Path{}, tree.String(), true},
		{"object key", PathOf("hero", "title"), `"Hello"`, true},
		{"array index", PathOf("list", 0, "name"), `"a"`, true},
		{"missing key", PathOf("hero", "subtitle"), "", false},
		{"index out of range", PathOf("list", 3), "", false},
		{"index into object", PathOf("hero", 0), "", false},
		{"key into array", PathOf("list", "name"), "", false},
		{"into primitive", PathOf("n", "x"), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Read(tree, tt.path)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.String())
			}
		})
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in   string
		want Path
	}{
		{"", Path{}},
		{"$", Path{}},
		{"$.hero.title", Path{"hero", "title"}},
		{"hero.title", Path{"hero", "title"}},
		{"$.list[2].name", Path{"list", "2", "name"}},
		{"list[0]", Path{"list", "0"}},
		{"[1]", Path{"1"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("wildcard rejected", func(t *testing.T) {
		_, err := ParsePath("$.list[*]")
		assert.Error(t, err)
	})

	t.Run("index above max rejected", func(t *testing.T) {
		_, err := ParsePath("$.list[999999999]")
		assert.ErrorIs(t, err, ErrIndexOutOfRange)
	})
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "$.list[2].name", PathOf("list", 2, "name").String())
	assert.Equal(t, "$", Path{}.String())
}

func TestPath_UnmarshalJSON(t *testing.T) {
	var p Path
	require.NoError(t, json.Unmarshal([]byte(`["list", 2, "name"]`), &p))
	assert.Equal(t, Path{"list", "2", "name"}, p)

	require.NoError(t, json.Unmarshal([]byte(`"$.hero.title"`), &p))
	assert.Equal(t, Path{"hero", "title"}, p)

	assert.Error(t, json.Unmarshal([]byte(`["list", -1]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`["list", 1.5]`), &p))
	assert.Error(t, json.Unmarshal([]byte(`[true]`), &p))

	err := json.Unmarshal([]byte(`["list", 999999999]`), &p)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	err = json.Unmarshal([]byte(`["list", "12345678901234567890"]`), &p)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestSegmentIndex(t *testing.T) {
	for seg, want := range map[string]bool{"0": true, "12": true, "1234567890": true, "": false, "-1": false, "+1": false, "a1": false, "1.0": false} {
		_, ok := SegmentIndex(seg)
		assert.Equal(t, want, ok, seg)
	}

	n, ok := SegmentIndex("99999999999999999999")
	assert.True(t, ok)
	assert.Greater(t, n, MaxIndex)
}
