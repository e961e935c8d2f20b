package content

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNotEditable is returned by widget actions that the widget's kind
	// does not offer.
	ErrNotEditable = errors.New("node is not editable")
	// ErrNotFound is returned when no node exists at a path.
	ErrNotFound = errors.New("no node at path")
)

// RootName is the field name used to classify the top of a tree.
const RootName = "$"

// ChangeFunc receives every edit produced by a widget.
type ChangeFunc func(path Path, value Node) error

// Uploader stores an uploaded file and returns the URL it is served from.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Editor turns trees into widget trees.
type Editor struct {
	Uploader Uploader
}

// Widget is the editable representation of one node. A widget tree is a
// snapshot: after any action the tree it was rendered from is outdated and
// should be rendered again from the new draft.
type Widget struct {
	Kind      Kind      `json:"kind"`
	Name      string    `json:"name"`
	Path      Path      `json:"path"`
	Value     *Node     `json:"value,omitempty"`
	Children  []*Widget `json:"children,omitempty"`
	Addable   bool      `json:"addable,omitempty"`
	Removable bool      `json:"removable,omitempty"`

	node     Node
	index    int
	parent   *Widget
	editor   *Editor
	onChange ChangeFunc
}

// Render builds the widget tree for the whole of tree.
func (e *Editor) Render(tree Node, onChange ChangeFunc) *Widget {
	return e.render(tree, Path{}, RootName, nil, -1, onChange)
}

// RenderAt builds the widget tree for the node at path.
func (e *Editor) RenderAt(tree Node, path Path, onChange ChangeFunc) (*Widget, error) {
	node, ok := Read(tree, path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	name := RootName
	if len(path) > 0 {
		name = path.Last()
	}
	return e.render(node, path, name, nil, -1, onChange), nil
}

func (e *Editor) render(node Node, path Path, name string, parent *Widget, index int, onChange ChangeFunc) *Widget {
	w := &Widget{
		Kind:      Classify(name, node),
		Name:      name,
		Path:      path,
		Removable: parent != nil && parent.Kind == KindArray,
		node:      node,
		index:     index,
		parent:    parent,
		editor:    e,
		onChange:  onChange,
	}
	switch w.Kind {
	case KindText, KindLongText, KindImage, KindUnsupported:
		v := node
		w.Value = &v
	case KindObject:
		for _, f := range node.Fields() {
			w.Children = append(w.Children, e.render(f.Value, path.Append(f.Key), f.Key, w, -1, onChange))
		}
	case KindArray:
		w.Addable = true
		for i, it := range node.Items() {
			seg := path.AppendIndex(i)
			w.Children = append(w.Children, e.render(it, seg, seg.Last(), w, i, onChange))
		}
	}
	return w
}

// Node returns the value the widget was rendered from.
func (w *Widget) Node() Node {
	return w.node
}

// Find returns the widget at the absolute path p within w.
func (w *Widget) Find(p Path) (*Widget, bool) {
	if len(p) < len(w.Path) || !p[:len(w.Path)].Equal(w.Path) {
		return nil, false
	}
	cur := w
	for _, seg := range p[len(w.Path):] {
		var next *Widget
		for _, c := range cur.Children {
			if c.Path.Last() == seg {
				next = c
				break
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Edit sets the text of a text or long text widget.
func (w *Widget) Edit(text string) error {
	if w.Kind != KindText && w.Kind != KindLongText {
		return fmt.Errorf("%w: edit on %s at %s", ErrNotEditable, w.Kind, w.Path)
	}
	return w.onChange(w.Path, String(text))
}

// Upload sends a file to the editor's uploader and stores the returned URL
// in an image widget. Nothing changes when the upload fails.
func (w *Widget) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if w.Kind != KindImage {
		return "", fmt.Errorf("%w: upload on %s at %s", ErrNotEditable, w.Kind, w.Path)
	}
	if w.editor == nil || w.editor.Uploader == nil {
		return "", errors.New("no uploader configured")
	}
	url, err := w.editor.Uploader.Upload(ctx, filename, r)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", filename, err)
	}
	if err := w.onChange(w.Path, String(url)); err != nil {
		return "", err
	}
	return url, nil
}

// AddItem appends a templated element to an array widget.
func (w *Widget) AddItem() error {
	if w.Kind != KindArray {
		return fmt.Errorf("%w: add item on %s at %s", ErrNotEditable, w.Kind, w.Path)
	}
	return w.onChange(w.Path, AddItem(w.node))
}

// Remove deletes this widget's element from its parent array.
func (w *Widget) Remove() error {
	if !w.Removable {
		return fmt.Errorf("%w: remove at %s", ErrNotEditable, w.Path)
	}
	return w.onChange(w.parent.Path, RemoveItem(w.parent.node, w.index))
}
