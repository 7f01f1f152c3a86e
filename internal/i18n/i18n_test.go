package i18n

import (
	"bytes"
	"log/slog"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCatalog(t *testing.T, lang string) (*Catalog, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(buf, nil))
	c, err := New(lang, logger)
	require.NoError(t, err)
	return c, buf
}

func TestNew_EmbeddedLanguages(t *testing.T) {
	c, _ := newTestCatalog(t, "de")
	assert.Equal(t, []string{"de", "en"}, c.Languages())
	assert.Equal(t, "de", c.Language())
}

func TestSetLanguage_FallsBack(t *testing.T) {
	c, logs := newTestCatalog(t, "fr")

	assert.Equal(t, DefaultLanguage, c.Language())
	assert.Contains(t, logs.String(), "Unsupported language")
	assert.Contains(t, logs.String(), "language=fr")
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		lang string
		key  string
		args []any
		want string
	}{
		{"english", "en", "general.no-permission", nil, "§cYou do not have permission to do that."},
		{"german", "de", "general.no-permission", nil, "§cDu hast keine Berechtigung dafür."},
		{"argument", "en", "general.unknown-command", []any{"fly"}, "§cUnknown command: §ffly"},
		{"missing key", "en", "nope.nothing", nil, "Missing message: nope.nothing"},
		{"mixed case language", "DE", "main.help-header", nil, "§6=== Headlamp ==="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCatalog(t, tt.lang)
			assert.Equal(t, tt.want, c.Message(tt.key, tt.args...))
		})
	}
}

func TestMessage_KeyMissingFromActiveLanguage(t *testing.T) {
	fsys := fstest.MapFS{
		"lang/en.yaml": {Data: []byte("language: en\nmessages:\n  a: \"&aonly english\"\n  b: \"english b\"\n")},
		"lang/de.yaml": {Data: []byte("language: de\nmessages:\n  b: \"deutsch b\"\n")},
	}
	c, err := NewFromFS(fsys, "de", nil)
	require.NoError(t, err)

	assert.Equal(t, "deutsch b", c.Message("b"))
	assert.Equal(t, "§aonly english", c.Message("a"))
}

func TestNewFromFS_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys fstest.MapFS
	}{
		{"no default language", fstest.MapFS{
			"lang/de.yaml": {Data: []byte("language: de\nmessages:\n  a: b\n")},
		}},
		{"broken yaml", fstest.MapFS{
			"lang/en.yaml": {Data: []byte("language: [en\n")},
		}},
		{"bad language tag", fstest.MapFS{
			"lang/en.yaml": {Data: []byte("language: en\nmessages:\n  a: b\n")},
			"lang/xx.yaml": {Data: []byte("language: \"not a tag!\"\nmessages:\n  a: b\n")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewFromFS(tt.fsys, "en", nil)
			assert.Error(t, err)
		})
	}
}

func TestColorize(t *testing.T) {
	assert.Equal(t, "§aGreen §lbold", Colorize("&aGreen &lbold"))
	assert.Equal(t, "fish & chips", Colorize("fish & chips"), "ampersand without a code is kept")
	assert.Equal(t, "&z", Colorize("&z"))
}
