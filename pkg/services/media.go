package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"
)

// ErrUnsupportedMedia is returned for uploads that are not images.
var ErrUnsupportedMedia = errors.New("unsupported media type")

type MediaFile struct {
	Name string `json:"name"`
	Path string `json:"path"` // Relative path for usage in content
	Size int64  `json:"size"`
	URL  string `json:"url"` // URL for preview
	Type string `json:"type,omitempty"`
}

// MediaStore saves uploaded images in a directory served under PublicPath.
type MediaStore struct {
	Dir        string
	PublicPath string
	Log        *zap.Logger
}

func NewMediaStore(dir, publicPath string, log *zap.Logger) (*MediaStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create media dir %s: %w", dir, err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &MediaStore{Dir: dir, PublicPath: publicPath, Log: log}, nil
}

func (m *MediaStore) usagePath(name string) string {
	usagePath := path.Join("/", filepath.ToSlash(m.PublicPath), name)
	return strings.ReplaceAll(usagePath, "//", "/")
}

// Upload stores r under a unique name derived from filename and returns the
// public URL of the stored file.
func (m *MediaStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	info, err := m.Save(ctx, filename, r)
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (m *MediaStore) Save(ctx context.Context, filename string, r io.Reader) (*MediaFile, error) {
	header := make([]byte, 3072)
	n, err := io.ReadFull(r, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	header = header[:n]
	mtype := mimetype.Detect(header)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, mtype.String())
	}

	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, " ", "_")
	ext := filepath.Ext(name)
	if ext == "" {
		ext = mtype.Extension()
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "upload"
	}
	name = fmt.Sprintf("%s_%d%s", stem, time.Now().UnixNano(), ext)

	fullMediaPath := SafeJoin(m.Dir, "", name)
	if fullMediaPath == "" {
		return nil, fmt.Errorf("invalid media path")
	}

	dst, err := os.Create(fullMediaPath)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	size, err := io.Copy(dst, io.MultiReader(bytes.NewReader(header), readerWithContext(ctx, r)))
	if err != nil {
		_ = os.Remove(fullMediaPath)
		return nil, err
	}

	url := m.usagePath(name)
	m.Log.Info("media stored", zap.String("name", name), zap.Int64("size", size), zap.String("type", mtype.String()))
	return &MediaFile{
		Name: name,
		Path: url,
		Size: size,
		URL:  url,
		Type: mtype.String(),
	}, nil
}

func (m *MediaStore) List() ([]MediaFile, error) {
	entries, err := os.ReadDir(m.Dir)
	if err != nil {
		return nil, err
	}

	files := []MediaFile{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		usagePath := m.usagePath(entry.Name())
		files = append(files, MediaFile{
			Name: entry.Name(),
			Path: usagePath,
			Size: info.Size(),
			URL:  usagePath,
		})
	}
	return files, nil
}

func (m *MediaStore) Delete(filename string) error {
	if filename != filepath.Base(filename) {
		return fmt.Errorf("invalid media path")
	}
	fullMediaPath := SafeJoin(m.Dir, "", filename)
	if fullMediaPath == "" {
		return fmt.Errorf("invalid media path")
	}
	return os.Remove(fullMediaPath)
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
