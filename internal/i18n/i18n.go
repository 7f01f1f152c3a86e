// Package i18n renders player-facing messages from embedded YAML catalogs.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// DefaultLanguage is used when the configured language has no catalog.
const DefaultLanguage = "en"

//go:embed lang/*.yaml
var embeddedFS embed.FS

// colorCode matches '&' followed by a legacy formatting code.
var colorCode = regexp.MustCompile(`&([0-9a-fk-orA-FK-OR])`)

type catalogFile struct {
	Language string            `yaml:"language"`
	Messages map[string]string `yaml:"messages"`
}

// Catalog holds every loaded language and renders messages in the active one.
type Catalog struct {
	mu       sync.RWMutex
	keys     map[string]map[string]struct{} // language -> known keys
	active   string
	printers map[string]*message.Printer
	logger   *slog.Logger
}

// New loads the embedded catalogs and activates lang.
func New(lang string, logger *slog.Logger) (*Catalog, error) {
	return NewFromFS(embeddedFS, lang, logger)
}

// NewFromFS loads lang/*.yaml from fsys and activates lang.
func NewFromFS(fsys fs.FS, lang string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Catalog{logger: logger}
	if err := c.load(fsys); err != nil {
		return nil, err
	}
	c.SetLanguage(lang)
	return c, nil
}

func (c *Catalog) load(fsys fs.FS) error {
	paths, err := fs.Glob(fsys, "lang/*.yaml")
	if err != nil {
		return fmt.Errorf("glob language files: %w", err)
	}
	sort.Strings(paths)

	builder := catalog.NewBuilder(catalog.Fallback(language.English))
	keys := make(map[string]map[string]struct{})

	for _, path := range paths {
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}

		lang := strings.ToLower(strings.TrimSpace(file.Language))
		tag, err := language.Parse(lang)
		if err != nil {
			return fmt.Errorf("%s: invalid language %q: %w", path, file.Language, err)
		}

		known := make(map[string]struct{}, len(file.Messages))
		for key, value := range file.Messages {
			if err := builder.SetString(tag, key, Colorize(value)); err != nil {
				return fmt.Errorf("%s: key %q: %w", path, key, err)
			}
			known[key] = struct{}{}
		}
		keys[lang] = known
	}

	if _, ok := keys[DefaultLanguage]; !ok {
		return fmt.Errorf("no catalog for default language %q", DefaultLanguage)
	}

	printers := make(map[string]*message.Printer, len(keys))
	for lang := range keys {
		printers[lang] = message.NewPrinter(language.MustParse(lang), message.Catalog(builder))
	}

	c.mu.Lock()
	c.keys = keys
	c.printers = printers
	c.mu.Unlock()
	return nil
}

// SetLanguage switches the active language. Unknown languages fall back to
// DefaultLanguage with a warning.
func (c *Catalog) SetLanguage(lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.keys[lang]; !ok {
		c.logger.Warn("Unsupported language, falling back", "language", lang, "fallback", DefaultLanguage)
		lang = DefaultLanguage
	}
	c.active = lang
	c.logger.Info("Language loaded", "language", lang)
}

// Language returns the active language.
func (c *Catalog) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Languages returns the loaded languages, sorted.
func (c *Catalog) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.keys))
	for lang := range c.keys {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Message renders key in the active language with fmt-style args. Keys
// missing from the active language come from DefaultLanguage; keys missing
// everywhere render as "Missing message: <key>".
func (c *Catalog) Message(key string, args ...any) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	lang := c.active
	if _, ok := c.keys[lang][key]; !ok {
		lang = DefaultLanguage
		if _, ok := c.keys[lang][key]; !ok {
			return "Missing message: " + key
		}
	}
	return c.printers[lang].Sprintf(key, args...)
}

// Colorize translates '&' formatting codes to the section sign the host renders.
func Colorize(s string) string {
	return colorCode.ReplaceAllString(s, "§$1")
}
