package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	long := "A very very very very very very long string over sixty chars"

	tests := []struct {
		name  string
		field string
		value Node
		want  Kind
	}{
		{"image name with empty value", "heroImage", String(""), KindImage},
		{"img name", "thumbImg", String("x"), KindImage},
		{"icon name any case", "ICON", String("x"), KindImage},
		{"rooted path value", "title", String("/uploads/a.png"), KindImage},
		{"http value", "link", String("https://example.com"), KindImage},
		{"image name beats long text", "imageDescription", String(long), KindImage},
		{"description name", "description", String("short"), KindLongText},
		{"subtitle name", "heroSubtitle", String(""), KindLongText},
		{"long value", "title", String(long), KindLongText},
		{"sixty chars is still text", "title", String(strings.Repeat("a", 60)), KindText},
		{"sixty arabic chars is still text", "title", String(strings.Repeat("ع", 60)), KindText},
		{"plain text", "title", String("Hello"), KindText},
		{"object", "hero", Object(F("title", String("x"))), KindObject},
		{"empty object", "hero", Object(), KindObject},
		{"array", "list", Array(), KindArray},
		{"number", "count", Number(5), KindUnsupported},
		{"bool", "enabled", Bool(true), KindUnsupported},
		{"null", "image", Null(), KindUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.field, tt.value))
			assert.Equal(t, tt.want, Classify(tt.field, tt.value), "classification must be deterministic")
		})
	}
}

func TestKind_Text(t *testing.T) {
	for k, name := range kindNames {
		b, err := k.MarshalText()
		assert.NoError(t, err)
		assert.Equal(t, name, string(b))

		var back Kind
		assert.NoError(t, back.UnmarshalText(b))
		assert.Equal(t, k, back)
	}
	var k Kind
	assert.Error(t, k.UnmarshalText([]byte("widget")))
}
