package content

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// ErrUnknownLocale is returned when a locale is not handled by a section.
var ErrUnknownLocale = errors.New("unknown locale")

// Locale is a canonical BCP 47 tag such as "en" or "ar".
type Locale string

// ParseLocale validates s and returns its canonical form.
func ParseLocale(s string) (Locale, error) {
	tag, err := language.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("parse locale %q: %w", s, err)
	}
	return Locale(tag.String()), nil
}

// ParseLocales parses a comma separated list, dropping duplicates.
func ParseLocales(s string) ([]Locale, error) {
	var out []Locale
	seen := map[Locale]bool{}
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		l, err := ParseLocale(part)
		if err != nil {
			return nil, err
		}
		if !seen[l] {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out, nil
}

// LocalizedTree holds one tree per locale. Trees of different locales are
// not required to share a shape.
type LocalizedTree map[Locale]Node

// Clone deep copies every locale's tree.
func (lt LocalizedTree) Clone() LocalizedTree {
	out := make(LocalizedTree, len(lt))
	for l, n := range lt {
		out[l] = n.Clone()
	}
	return out
}

// Locales returns the locales present, sorted.
func (lt LocalizedTree) Locales() []Locale {
	out := make([]Locale, 0, len(lt))
	for l := range lt {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// PageContent maps section keys to their localized trees.
type PageContent map[string]LocalizedTree

// Section is a named localized tree of a page.
type Section struct {
	Page string
	Key  string
	Tree LocalizedTree
}

// SectionOf picks key out of a fetched page. A missing section yields an
// empty tree.
func SectionOf(page string, pc PageContent, key string) Section {
	tree := pc[key]
	if tree == nil {
		tree = LocalizedTree{}
	}
	return Section{Page: page, Key: key, Tree: tree}
}
