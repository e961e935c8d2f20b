package content

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	url  string
	err  error
	body string
}

func (f *fakeUploader) Upload(_ context.Context, filename string, r io.Reader) (string, error) {
	b, _ := io.ReadAll(r)
	f.body = string(b)
	if f.err != nil {
		return "", f.err
	}
	return f.url + filename, nil
}

type recorder struct {
	tree    Node
	changes []Path
}

func (r *recorder) onChange(p Path, v Node) error {
	r.changes = append(r.changes, p)
	r.tree = Apply(r.tree, p, v)
	return nil
}

const pageJSON = `{
  "hero": {"title": "Hello", "heroImage": "", "description": "short"},
  "list": [{"name": "a"}, {"name": "b"}],
  "count": 5
}`

func TestEditor_RenderDispatch(t *testing.T) {
	tree := mustJSON(t, pageJSON)
	root := (&Editor{}).Render(tree, func(Path, Node) error { return nil })

	assert.Equal(t, KindObject, root.Kind)
	assert.Equal(t, RootName, root.Name)
	require.Len(t, root.Children, 3)

	hero := root.Children[0]
	assert.Equal(t, KindObject, hero.Kind)
	assert.False(t, hero.Addable)
	require.Len(t, hero.Children, 3)
	assert.Equal(t, KindText, hero.Children[0].Kind)
	assert.Equal(t, Path{"hero", "title"}, hero.Children[0].Path)
	assert.Equal(t, KindImage, hero.Children[1].Kind)
	assert.Equal(t, KindLongText, hero.Children[2].Kind)

	list := root.Children[1]
	assert.Equal(t, KindArray, list.Kind)
	assert.True(t, list.Addable)
	require.Len(t, list.Children, 2)
	assert.True(t, list.Children[1].Removable)
	assert.Equal(t, Path{"list", "1", "name"}, list.Children[1].Children[0].Path)
	assert.False(t, list.Children[1].Children[0].Removable)

	count := root.Children[2]
	assert.Equal(t, KindUnsupported, count.Kind)
	require.NotNil(t, count.Value)
	assert.Equal(t, "5", count.Value.String())
}

func TestEditor_RenderAt(t *testing.T) {
	tree := mustJSON(t, pageJSON)
	e := &Editor{}

	w, err := e.RenderAt(tree, PathOf("list", 0), func(Path, Node) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "0", w.Name)
	assert.Equal(t, KindObject, w.Kind)

	_, err = e.RenderAt(tree, PathOf("nope"), nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWidget_Actions(t *testing.T) {
	newRoot := func(t *testing.T, up Uploader) (*Widget, *recorder) {
		rec := &recorder{tree: mustJSON(t, pageJSON)}
		return (&Editor{Uploader: up}).Render(rec.tree, rec.onChange), rec
	}

	t.Run("edit text", func(t *testing.T) {
		root, rec := newRoot(t, nil)
		w, ok := root.Find(PathOf("hero", "title"))
		require.True(t, ok)
		require.NoError(t, w.Edit("World"))
		got, _ := Read(rec.tree, PathOf("hero", "title"))
		assert.Equal(t, `"World"`, got.String())
	})

	t.Run("edit unsupported", func(t *testing.T) {
		root, rec := newRoot(t, nil)
		w, ok := root.Find(PathOf("count"))
		require.True(t, ok)
		assert.ErrorIs(t, w.Edit("6"), ErrNotEditable)
		assert.Empty(t, rec.changes)
	})

	t.Run("add item clones first element", func(t *testing.T) {
		root, rec := newRoot(t, nil)
		w, _ := root.Find(PathOf("list"))
		require.NoError(t, w.AddItem())
		got, _ := Read(rec.tree, PathOf("list"))
		assert.Equal(t, `[{"name":"a"},{"name":"b"},{"name":"a"}]`, got.String())
		assert.Equal(t, []Path{{"list"}}, rec.changes)
	})

	t.Run("add item on object", func(t *testing.T) {
		root, _ := newRoot(t, nil)
		w, _ := root.Find(PathOf("hero"))
		assert.ErrorIs(t, w.AddItem(), ErrNotEditable)
	})

	t.Run("remove item", func(t *testing.T) {
		root, rec := newRoot(t, nil)
		w, ok := root.Find(PathOf("list", 0))
		require.True(t, ok)
		require.NoError(t, w.Remove())
		got, _ := Read(rec.tree, PathOf("list"))
		assert.Equal(t, `[{"name":"b"}]`, got.String())
	})

	t.Run("remove object field is not allowed", func(t *testing.T) {
		root, _ := newRoot(t, nil)
		w, _ := root.Find(PathOf("hero", "title"))
		assert.ErrorIs(t, w.Remove(), ErrNotEditable)
	})

	t.Run("upload stores url", func(t *testing.T) {
		up := &fakeUploader{url: "/media/"}
		root, rec := newRoot(t, up)
		w, _ := root.Find(PathOf("hero", "heroImage"))
		url, err := w.Upload(context.Background(), "a.png", strings.NewReader("png"))
		require.NoError(t, err)
		assert.Equal(t, "/media/a.png", url)
		assert.Equal(t, "png", up.body)
		got, _ := Read(rec.tree, PathOf("hero", "heroImage"))
		assert.Equal(t, `"/media/a.png"`, got.String())
	})

	t.Run("failed upload leaves value", func(t *testing.T) {
		up := &fakeUploader{err: errors.New("disk full")}
		root, rec := newRoot(t, up)
		w, _ := root.Find(PathOf("hero", "heroImage"))
		_, err := w.Upload(context.Background(), "a.png", strings.NewReader("png"))
		assert.Error(t, err)
		assert.Empty(t, rec.changes)
	})

	t.Run("upload on text", func(t *testing.T) {
		root, _ := newRoot(t, &fakeUploader{})
		w, _ := root.Find(PathOf("hero", "title"))
		_, err := w.Upload(context.Background(), "a.png", strings.NewReader(""))
		assert.ErrorIs(t, err, ErrNotEditable)
	})
}

func TestWidget_Find(t *testing.T) {
	root := (&Editor{}).Render(mustJSON(t, pageJSON), nil)

	w, ok := root.Find(Path{})
	assert.True(t, ok)
	assert.Same(t, root, w)

	_, ok = root.Find(PathOf("list", 5))
	assert.False(t, ok)

	sub, _ := root.Find(PathOf("list"))
	_, ok = sub.Find(PathOf("hero"))
	assert.False(t, ok, "path outside of the widget")
}

func TestEditor_DeepTree(t *testing.T) {
	tree := Object()
	p := Path{}
	for i := 0; i < 200; i++ {
		p = p.Append("n")
	}
	tree = Apply(tree, p, String("leaf"))

	root := (&Editor{}).Render(tree, nil)
	w, ok := root.Find(p)
	require.True(t, ok)
	assert.Equal(t, KindText, w.Kind)
}
