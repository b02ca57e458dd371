package contacts

import (
	"encoding/json"
	"fmt"
	"os"
)

// Load reads a contact directory from a JSON file of name -> address
// pairs. Source order is preserved so similarity ties stay deterministic.
func Load(path string) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(nil), nil // No contacts yet, that's OK
		}
		return nil, fmt.Errorf("open contacts: %w", err)
	}
	defer f.Close()

	entries, err := decodeOrdered(f)
	if err != nil {
		return nil, fmt.Errorf("parse contacts: %w", err)
	}

	return New(entries), nil
}

// decodeOrdered walks the JSON object token by token. encoding/json maps
// would lose key order, which the resolver depends on for tiebreaks.
func decodeOrdered(f *os.File) ([]Entry, error) {
	dec := json.NewDecoder(f)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object, got %v", tok)
	}

	var entries []Entry
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected string key, got %v", keyTok)
		}

		var address string
		if err := dec.Decode(&address); err != nil {
			return nil, fmt.Errorf("contact %q: %w", name, err)
		}

		entries = append(entries, Entry{Name: name, Address: address})
	}

	return entries, nil
}
