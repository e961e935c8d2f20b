package content

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind is the editable classification of a node.
type Kind uint8

const (
	KindUnsupported Kind = iota
	KindText
	KindLongText
	KindImage
	KindObject
	KindArray
)

var kindNames = map[Kind]string{
	KindUnsupported: "unsupported",
	KindText:        "text",
	KindLongText:    "longtext",
	KindImage:       "image",
	KindObject:      "object",
	KindArray:       "array",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown kind %q", b)
}

// LongTextThreshold is the length, in characters, above which a string
// field is edited as long text.
const LongTextThreshold = 60

var (
	imageNameHints    = []string{"image", "img", "icon"}
	longTextNameHints = []string{"description", "subtitle"}
)

// Classify decides how the field called name holding value is edited.
// Image detection is driven by the field name first so that an empty
// image field still gets an upload control.
func Classify(name string, value Node) Kind {
	if s, ok := value.AsString(); ok {
		lower := strings.ToLower(name)
		if containsAny(lower, imageNameHints) || strings.HasPrefix(s, "/") || strings.HasPrefix(s, "http") {
			return KindImage
		}
		if utf8.RuneCountInString(s) > LongTextThreshold || containsAny(lower, longTextNameHints) {
			return KindLongText
		}
		return KindText
	}
	switch value.Type() {
	case TypeObject:
		return KindObject
	case TypeArray:
		return KindArray
	}
	return KindUnsupported
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
