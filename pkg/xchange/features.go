package xchange

import (
	"sort"
	"strings"
)

// FeatureMask lists the kinds of read a reader supports for an extension.
type FeatureMask uint8

const (
	ReadFilename FeatureMask = 1 << iota
	ReadStream
	ReadMemory
)

// Has reports whether every bit of f is set in m.
func (m FeatureMask) Has(f FeatureMask) bool {
	return m&f == f
}

// String returns the set features joined by "|".
func (m FeatureMask) String() string {
	var parts []string
	if m.Has(ReadFilename) {
		parts = append(parts, "filename")
	}
	if m.Has(ReadStream) {
		parts = append(parts, "stream")
	}
	if m.Has(ReadMemory) {
		parts = append(parts, "memory")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// OptionInfo describes an option understood by a reader.
type OptionInfo struct {
	Name string
	Type string
}

// Features describes what a reader can read and which options it honours.
type Features struct {
	Extensions map[string]FeatureMask
	Options    []OptionInfo
}

// SortedExtensions returns the extensions in lexical order.
func (f Features) SortedExtensions() []string {
	exts := make([]string, 0, len(f.Extensions))
	for ext := range f.Extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ParseExtensionList splits a "*.a;*.b" list into lower-case extensions
// without the leading "*.".
func ParseExtensionList(list string) []string {
	var exts []string
	for _, part := range strings.Split(list, ";") {
		part = strings.ToLower(strings.TrimSpace(part))
		part = strings.TrimPrefix(part, "*")
		part = strings.TrimPrefix(part, ".")
		if part != "" {
			exts = append(exts, part)
		}
	}
	return exts
}
