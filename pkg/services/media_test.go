package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

func newMedia(t *testing.T) *MediaStore {
	m, err := NewMediaStore(filepath.Join(t.TempDir(), "media"), "/media/", zaptest.NewLogger(t))
	require.NoError(t, err)
	return m
}

func TestMediaStore_SaveImage(t *testing.T) {
	m := newMedia(t)

	info, err := m.Save(context.Background(), "my photo.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", info.Type)
	assert.True(t, strings.HasPrefix(info.Name, "my_photo_"), info.Name)
	assert.True(t, strings.HasSuffix(info.Name, ".png"), info.Name)
	assert.Equal(t, "/media/"+info.Name, info.URL)
	assert.EqualValues(t, len(pngHeader), info.Size)

	data, err := os.ReadFile(filepath.Join(m.Dir, info.Name))
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)
}

func TestMediaStore_ExtensionFromContent(t *testing.T) {
	m := newMedia(t)
	url, err := m.Upload(context.Background(), "logo", bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(url, ".png"), url)
}

func TestMediaStore_RejectsNonImages(t *testing.T) {
	m := newMedia(t)
	_, err := m.Save(context.Background(), "notes.png", strings.NewReader("just some text"))
	assert.ErrorIs(t, err, ErrUnsupportedMedia)

	files, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMediaStore_ListAndDelete(t *testing.T) {
	m := newMedia(t)
	info, err := m.Save(context.Background(), "a.png", bytes.NewReader(pngHeader))
	require.NoError(t, err)

	files, err := m.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, info.Name, files[0].Name)
	assert.Equal(t, info.URL, files[0].URL)

	assert.Error(t, m.Delete("../a.png"))
	require.NoError(t, m.Delete(info.Name))

	files, err = m.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestMediaStore_CancelledUpload(t *testing.T) {
	m := newMedia(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	big := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 8192)...)
	_, err := m.Save(ctx, "big.png", bytes.NewReader(big))
	assert.ErrorIs(t, err, context.Canceled)

	files, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}
