// Package catalog reads and writes the school identity catalog, a JSON object
// mapping string-encoded school ids to canonical display names:
//
//	{"42": "Acme University", "1095": "University of Denver"}
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/user/rating-ingest/internal/entity"
)

// ErrCatalogUnavailable is returned when the catalog file is missing or
// cannot be decoded. Nothing can be loaded without it.
var ErrCatalogUnavailable = errors.New("identity catalog unavailable")

// LoadFile reads the whole catalog at path.
func LoadFile(path string) (entity.Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalogUnavailable, err)
	}
	c, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrCatalogUnavailable, path, err)
	}
	return c, nil
}

// Decode parses catalog JSON. Every key must be an integer id and every name
// non-empty.
func Decode(data []byte) (entity.Catalog, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	c := make(entity.Catalog, len(raw))
	for key, name := range raw {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("school id %q is not an integer", key)
		}
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("school %d has an empty name", id)
		}
		c[id] = name
	}
	return c, nil
}

// WriteFile stores c at path as indented JSON.
func WriteFile(path string, c entity.Catalog) error {
	raw := make(map[string]string, len(c))
	for id, name := range c {
		raw[strconv.FormatInt(id, 10)] = name
	}
	data, err := json.MarshalIndent(raw, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
