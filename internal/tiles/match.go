package tiles

import (
	"errors"
	"net/url"
	"path"
	"regexp"
	"strings"
)

// ErrEmptyCatalog is returned when the catalog holds no usable tile entry.
var ErrEmptyCatalog = errors.New("catalog has no tile entries")

// tilePattern matches <base>_<NN><N|S>_<NNN><E|W> with an optional extension.
var tilePattern = regexp.MustCompile(`^(.+)_(\d{2}[NS])_(\d{3}[EW])(\.[A-Za-z0-9]+)?$`)

// Match returns the catalog entries whose tile name is one of the candidates.
// Catalog order is kept, each entry is returned at most once and entries that
// do not look like tile files are ignored.
func Match(catalog []string, candidates []string) []string {
	if len(catalog) == 0 || len(candidates) == 0 {
		return []string{}
	}

	wanted := make(map[string]struct{}, len(candidates))
	for _, name := range candidates {
		if stem, ok := Stem(name); ok {
			wanted[stem] = struct{}{}
		}
	}

	seen := make(map[string]struct{})
	matched := []string{}
	for _, entry := range catalog {
		stem, ok := Stem(FileName(entry))
		if !ok {
			continue
		}
		if _, hit := wanted[stem]; !hit {
			continue
		}
		if _, dup := seen[entry]; dup {
			continue
		}
		seen[entry] = struct{}{}
		matched = append(matched, entry)
	}

	return matched
}

// BaseName derives the dataset prefix shared by all tiles from the first
// well-formed catalog entry, e.g. Hansen_GFC-2020-v1.8_lossyear.
func BaseName(catalog []string) (string, error) {
	for _, entry := range catalog {
		parts := tilePattern.FindStringSubmatch(FileName(entry))
		if parts != nil {
			return parts[1], nil
		}
	}

	return "", ErrEmptyCatalog
}

// Stem strips the extension from a tile file name. It reports false when
// the name does not follow the tile naming pattern.
func Stem(name string) (string, bool) {
	parts := tilePattern.FindStringSubmatch(name)
	if parts == nil {
		return "", false
	}

	return parts[1] + "_" + parts[2] + "_" + parts[3], true
}

// FileName returns the final path segment of a catalog URL.
func FileName(entry string) string {
	entry = strings.TrimSpace(entry)
	if u, err := url.Parse(entry); err == nil && u.Path != "" {
		return path.Base(u.Path)
	}

	return path.Base(entry)
}
