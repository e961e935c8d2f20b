package services

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitecms/pkg/content"
)

func mustNode(t *testing.T, s string) content.Node {
	t.Helper()
	var n content.Node
	require.NoError(t, json.Unmarshal([]byte(s), &n))
	return n
}

func TestSafeJoin(t *testing.T) {
	assert.Equal(t, filepath.Join("/root", "content", "a.json"), SafeJoin("/root", "content", "a.json"))
	assert.Equal(t, "", SafeJoin("/root", "content", "../etc/passwd"))
}

func TestFormatOf(t *testing.T) {
	for name, want := range map[string]string{
		"home.json": "json",
		"home.YAML": "yaml",
		"home.yml":  "yaml",
		"home.toml": "toml",
	} {
		got, err := FormatOf(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
	_, err := FormatOf("home.md")
	assert.Error(t, err)
}

func TestDecodePage_SkipsNonObjectSections(t *testing.T) {
	pc, err := DecodePage([]byte(`{"hero": {"en": {"title": "Hi"}}, "version": 3}`), "json")
	require.NoError(t, err)
	assert.Len(t, pc, 1)
	assert.Equal(t, `{"title":"Hi"}`, pc["hero"]["en"].String())
}

func TestDecodePage_EmptyJSON(t *testing.T) {
	pc, err := DecodePage([]byte("  \n"), "json")
	require.NoError(t, err)
	assert.Empty(t, pc)
}

func TestEncodePage_YAMLKeepsKeyOrder(t *testing.T) {
	pc := content.PageContent{"hero": {"en": mustNode(t, `{"zeta": "z", "alpha": "a"}`)}}
	data, err := EncodePage(pc, "yaml")
	require.NoError(t, err)
	assert.Equal(t, "hero:\n  en:\n    zeta: z\n    alpha: a\n", string(data))

	back, err := DecodePage(data, "yaml")
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha"}, back["hero"]["en"].Keys())
}

func TestEncodePage_TOMLDropsNulls(t *testing.T) {
	pc := content.PageContent{"hero": {"en": mustNode(t, `{"title": "Hi", "gone": null, "list": [null, "x"]}`)}}
	data, err := EncodePage(pc, "toml")
	require.NoError(t, err)

	back, err := DecodePage(data, "toml")
	require.NoError(t, err)
	tree := back["hero"]["en"]
	_, ok := tree.Get("gone")
	assert.False(t, ok)
	list, _ := tree.Get("list")
	assert.Equal(t, `["","x"]`, list.String())
}

func TestFileStore_FetchUnknownPageIsEmpty(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	pc, err := s.Fetch(context.Background(), "missing")
	require.NoError(t, err)
	assert.Empty(t, pc)
}

func TestFileStore_PersistOnlyTouchesOneLocale(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Persist(ctx, "home", "hero", "en", mustNode(t, `{"title": "Hello"}`)))
	require.NoError(t, s.Persist(ctx, "home", "hero", "ar", mustNode(t, `{"title": "مرحبا"}`)))
	require.NoError(t, s.Persist(ctx, "home", "hero", "en", mustNode(t, `{"title": "Hi", "list": []}`)))

	pc, err := s.Fetch(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Hi","list":[]}`, pc["hero"]["en"].String())
	assert.Equal(t, `{"title":"مرحبا"}`, pc["hero"]["ar"].String())

	_, err = os.Stat(filepath.Join(s.Dir(), "home.json"))
	assert.NoError(t, err)
}

func TestFileStore_KeepsExistingFormat(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "about.yaml"), []byte("team:\n  en:\n    heading: Us\n"), 0644))

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Persist(ctx, "about", "team", "ar", mustNode(t, `{"heading": "نحن"}`)))

	data, err := os.ReadFile(filepath.Join(dir, "about.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "heading: Us")
	assert.Contains(t, string(data), "heading: نحن")
	_, err = os.Stat(filepath.Join(dir, "about.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_RejectsBadNames(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	err = s.Persist(context.Background(), "../etc", "hero", "en", content.Object())
	assert.ErrorIs(t, err, ErrInvalidName)
	err = s.Persist(context.Background(), "home", "a/b", "en", content.Object())
	assert.ErrorIs(t, err, ErrInvalidName)
	_, err = s.Fetch(context.Background(), "..")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestFileStore_ListPages(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"home.json", "about.yaml", "notes.md", ".page_tmp"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0644))
	}
	s, err := NewFileStore(dir)
	require.NoError(t, err)

	pages, err := s.ListPages(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"about", "home"}, pages)
}
