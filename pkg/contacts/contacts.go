// Package contacts provides the contact directory and fuzzy name resolution.
//
// The directory is an immutable mapping from canonical keys to delivery
// addresses, loaded once at startup. Canonical keys are normalized spoken
// names: lowercase, non-alphanumerics stripped, spaces collapsed to
// underscores. Key collisions at load time are disambiguated with a
// numeric suffix, so lookup keys are always unique.
package contacts

import (
	"strconv"
	"strings"
	"unicode"
)

// Entry is a single contact as it appears in the source file.
type Entry struct {
	Name    string
	Address string
}

// Directory is an immutable contact lookup table.
// Key order is preserved from the source so that similarity ties resolve
// deterministically (first seen wins).
type Directory struct {
	keys      []string
	addresses map[string]string
}

// New builds a directory from entries, normalizing names into canonical
// keys and suffixing duplicates.
func New(entries []Entry) *Directory {
	d := &Directory{
		addresses: make(map[string]string, len(entries)),
	}

	for _, e := range entries {
		key := NormalizeKey(e.Name)
		if key == "" {
			continue
		}

		if _, taken := d.addresses[key]; taken {
			key = d.disambiguate(key)
		}

		d.keys = append(d.keys, key)
		d.addresses[key] = e.Address
	}

	return d
}

// disambiguate appends the first free numeric suffix to a colliding key.
func (d *Directory) disambiguate(key string) string {
	for i := 2; ; i++ {
		candidate := key + "_" + strconv.Itoa(i)
		if _, taken := d.addresses[candidate]; !taken {
			return candidate
		}
	}
}

// Address returns the delivery address for a canonical key.
func (d *Directory) Address(key string) (string, bool) {
	addr, ok := d.addresses[key]
	return addr, ok
}

// Keys returns the canonical keys in load order.
func (d *Directory) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of contacts.
func (d *Directory) Len() int {
	return len(d.keys)
}

// NormalizeKey converts a spoken or written name into a canonical
// directory key: lowercase, punctuation removed, spaces to underscores.
func NormalizeKey(name string) string {
	var b strings.Builder
	lastUnderscore := true // suppress leading underscores

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case unicode.IsSpace(r) && !lastUnderscore:
			b.WriteRune('_')
			lastUnderscore = true
		}
	}

	return strings.TrimSuffix(b.String(), "_")
}
