// Package dictionary serves the pre-baked word translations used by the
// reader. Lookups are pure: nothing is fetched remotely.
package dictionary

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"ieltsreader/internal/models"
	"ieltsreader/internal/text"
)

//go:embed data/dictionary.json
var builtinData []byte

// Dictionary maps normalized keys to entries. It is read-only after
// construction and safe for concurrent use.
type Dictionary struct {
	entries map[string]models.DictionaryEntry
}

// New returns the built-in dictionary
func New() (*Dictionary, error) {
	d := &Dictionary{entries: make(map[string]models.DictionaryEntry)}
	if err := d.merge(builtinData); err != nil {
		return nil, fmt.Errorf("built-in dictionary: %w", err)
	}
	return d, nil
}

// Load returns the built-in dictionary with the JSON file at path merged
// over it. An empty path yields the built-in dictionary.
func Load(path string) (*Dictionary, error) {
	d, err := New()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return d, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", path, err)
	}
	if err := d.merge(data); err != nil {
		return nil, fmt.Errorf("dictionary %s: %w", path, err)
	}
	return d, nil
}

func (d *Dictionary) merge(data []byte) error {
	var raw map[string]models.DictionaryEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for word, entry := range raw {
		key := text.Normalize(word)
		if key == "" {
			continue
		}
		if entry.Synonyms == nil {
			entry.Synonyms = []string{}
		}
		d.entries[key] = entry
	}
	return nil
}

// Lookup normalizes raw and returns its entry. On a miss it returns the
// fallback entry for raw and false. An empty key always misses.
func (d *Dictionary) Lookup(raw string) (models.DictionaryEntry, bool) {
	key := text.Normalize(raw)
	if key != "" {
		if entry, ok := d.entries[key]; ok {
			return entry, true
		}
	}
	return Fallback(raw), false
}

// Len returns the number of entries
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Fallback is the entry shown for words without a pre-baked translation
func Fallback(raw string) models.DictionaryEntry {
	return models.DictionaryEntry{
		Translation: fmt.Sprintf("No pre-baked translation for %q", raw),
		Definition:  "Not in the offline dictionary yet. Save it to review later.",
		Synonyms:    []string{},
	}
}
