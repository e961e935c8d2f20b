package content

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/r3labs/diff/v3"
)

// Draft is a locale's working copy of a section. Drafts are values: Patch
// returns a new draft and keeps no history.
type Draft struct {
	Locale Locale `json:"locale"`
	Root   Node   `json:"root"`
}

// Open starts a draft from the authoritative tree of locale. A locale with
// no content, or null content, starts as an empty object.
func Open(section Section, locale Locale) Draft {
	return Draft{Locale: locale, Root: baseTree(section.Tree, locale).Clone()}
}

// Patch returns the draft with value written at path.
func (d Draft) Patch(path Path, value Node) Draft {
	return Draft{Locale: d.Locale, Root: Apply(d.Root, path, value)}
}

func baseTree(tree LocalizedTree, locale Locale) Node {
	n, ok := tree[locale]
	if !ok || n.IsNull() {
		return Object()
	}
	return n
}

// Change is one difference between two trees.
type Change struct {
	Type string `json:"type"`
	Path Path   `json:"path"`
	From any    `json:"from,omitempty"`
	To   any    `json:"to,omitempty"`
}

// Diff lists the changes turning from into to.
func Diff(from, to Node) ([]Change, error) {
	changelog, err := diff.Diff(from.Interface(), to.Interface(),
		diff.SliceOrdering(true),
		diff.AllowTypeMismatch(true),
	)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	changes := make([]Change, 0, len(changelog))
	for _, c := range changelog {
		changes = append(changes, Change{
			Type: c.Type,
			Path: Path(append([]string{}, c.Path...)),
			From: c.From,
			To:   c.To,
		})
	}
	return changes, nil
}

// MergePatch renders an RFC 7386 merge patch turning from into to.
func MergePatch(from, to Node) ([]byte, error) {
	original, err := json.Marshal(from)
	if err != nil {
		return nil, err
	}
	modified, err := json.Marshal(to)
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.CreateMergePatch(original, modified)
	if err != nil {
		return nil, fmt.Errorf("create merge patch: %w", err)
	}
	return patch, nil
}
