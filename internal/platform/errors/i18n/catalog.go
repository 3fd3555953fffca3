// Package i18n provides localized user-facing messages for error codes.
package i18n

import (
	"bytes"
	"strings"
	"sync"
	"text/template"

	"golang.org/x/text/language"
)

// Code is a machine-readable error code (duplicated from errors package to avoid cycle).
type Code = string

// Catalog maps error codes to message templates for a specific locale.
type Catalog struct {
	locale   string
	messages map[Code]string
}

var (
	catalogsMu sync.RWMutex
	catalogs   = map[string]*Catalog{}
	tags       []language.Tag
	matcher    language.Matcher
)

func init() {
	RegisterCatalog(enUSCatalog.locale, enUSCatalog)
	RegisterCatalog(frFRCatalog.locale, frFRCatalog)
}

// GetCatalog returns the catalog for the given locale.
// Falls back to en-US if the locale is not found.
func GetCatalog(locale string) *Catalog {
	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	if c, ok := catalogs[strings.TrimSpace(locale)]; ok {
		return c
	}
	return enUSCatalog
}

// Negotiate picks the best registered catalog for an Accept-Language header.
func Negotiate(acceptLanguage string) *Catalog {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return enUSCatalog
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return enUSCatalog
	}

	catalogsMu.RLock()
	defer catalogsMu.RUnlock()
	_, idx, confidence := matcher.Match(desired...)
	if confidence == language.No {
		return enUSCatalog
	}
	if c, ok := catalogs[tags[idx].String()]; ok {
		return c
	}
	return enUSCatalog
}

// Locale returns the locale of this catalog.
func (c *Catalog) Locale() string {
	return c.locale
}

// Format renders the message template with the given metadata.
// Falls back to the error code itself if no template is found.
func (c *Catalog) Format(code Code, metadata map[string]string) string {
	tmpl, ok := c.messages[code]
	if !ok {
		return code
	}
	if metadata == nil {
		metadata = map[string]string{}
	}

	t, err := template.New("msg").Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return tmpl
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, metadata); err != nil {
		return tmpl
	}
	return buf.String()
}

// RegisterCatalog registers a catalog and rebuilds the language matcher.
// The en-US catalog stays first so it wins ties.
func RegisterCatalog(locale string, cat *Catalog) {
	catalogsMu.Lock()
	defer catalogsMu.Unlock()
	catalogs[locale] = cat

	tag, err := language.Parse(locale)
	if err != nil {
		return
	}
	for _, existing := range tags {
		if existing == tag {
			matcher = language.NewMatcher(tags)
			return
		}
	}
	tags = append(tags, tag)
	matcher = language.NewMatcher(tags)
}

// NewCatalog creates a new catalog with the given locale and messages.
func NewCatalog(locale string, messages map[Code]string) *Catalog {
	cloned := make(map[Code]string, len(messages))
	for key, value := range messages {
		cloned[key] = value
	}
	return &Catalog{
		locale:   locale,
		messages: cloned,
	}
}
