// Package i18n provides message lookup with a fallback language.
package i18n

import (
	"sort"
	"sync"
)

// DefaultLang is the initial and fallback language.
const DefaultLang = "en"

// Dictionary maps message keys to translated text.
type Dictionary map[string]string

// Translator resolves keys in the current language, then the fallback
// language, then returns the key itself.
type Translator struct {
	mu           sync.RWMutex
	lang         string
	fallbackLang string
	langs        map[string]Dictionary
}

// New returns a translator with the built-in en and ru dictionaries.
// An empty lang means DefaultLang.
func New(lang string) *Translator {
	if lang == "" {
		lang = DefaultLang
	}
	return &Translator{
		lang:         lang,
		fallbackLang: DefaultLang,
		langs: map[string]Dictionary{
			"en": english,
			"ru": russian,
		},
	}
}

// Get returns the translation of key.
func (t *Translator) Get(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if v := t.langs[t.lang][key]; v != "" {
		return v
	}
	if v := t.langs[t.fallbackLang][key]; v != "" {
		return v
	}
	return key
}

func (t *Translator) Lang() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lang
}

func (t *Translator) SetLang(lang string) {
	t.mu.Lock()
	t.lang = lang
	t.mu.Unlock()
}

func (t *Translator) FallbackLang() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fallbackLang
}

func (t *Translator) SetFallbackLang(lang string) {
	t.mu.Lock()
	t.fallbackLang = lang
	t.mu.Unlock()
}

// RegisterLang adds or replaces a dictionary. The map is copied.
func (t *Translator) RegisterLang(lang string, dict Dictionary) {
	cp := make(Dictionary, len(dict))
	for k, v := range dict {
		cp[k] = v
	}
	t.mu.Lock()
	t.langs[lang] = cp
	t.mu.Unlock()
}

// Langs returns the registered language codes, sorted.
func (t *Translator) Langs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.langs))
	for k := range t.langs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
