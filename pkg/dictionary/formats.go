package dictionary

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
)

// FileFormat is a seed file encoding understood by LoadFile.
type FileFormat int

const (
	FormatUnknown FileFormat = iota
	FormatText               // one document per line
	FormatJSON               // array of objects
	FormatJSONL              // one object per line
	FormatMsgpack            // array of maps, or a stream of maps
)

type seedFormat struct {
	format FileFormat
	name   string
	exts   []string
	// smallest file that can hold one document
	minBytes int64
}

// ordered for help output
var seedFormats = []seedFormat{
	{FormatText, "text", []string{".txt"}, 1},
	{FormatJSON, "json", []string{".json"}, 2},
	{FormatJSONL, "jsonl", []string{".jsonl", ".ndjson"}, 2},
	{FormatMsgpack, "msgpack", []string{".msgpack", ".mp"}, 1},
}

func lookupFormat(f FileFormat) (seedFormat, bool) {
	i := slices.IndexFunc(seedFormats, func(s seedFormat) bool { return s.format == f })
	if i < 0 {
		return seedFormat{}, false
	}
	return seedFormats[i], true
}

func (f FileFormat) String() string {
	if s, ok := lookupFormat(f); ok {
		return s.name
	}
	return "unknown"
}

// SupportedExtensions lists every seed file extension, e.g. for flag help.
func SupportedExtensions() []string {
	var exts []string
	for _, s := range seedFormats {
		exts = append(exts, s.exts...)
	}
	return exts
}

// DetectFormat picks the format from the file extension, ignoring case.
func DetectFormat(filename string) (FileFormat, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range seedFormats {
		if slices.Contains(s.exts, ext) {
			return s.format, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unsupported seed file %s (want one of %s)",
		filename, strings.Join(SupportedExtensions(), ", "))
}

// ValidateFileFormat checks that filename is a regular file with an extension
// of format and big enough to hold a document.
func ValidateFileFormat(filename string, format FileFormat) error {
	s, ok := lookupFormat(format)
	if !ok {
		return fmt.Errorf("unknown seed format %d", format)
	}

	fi, err := os.Stat(filename)
	if err != nil {
		return fmt.Errorf("seed file: %w", err)
	}
	if !fi.Mode().IsRegular() {
		return fmt.Errorf("seed file %s is not a regular file", filename)
	}
	if fi.Size() < s.minBytes {
		return fmt.Errorf("seed file %s is too small for %s (%d bytes)", filename, s.name, fi.Size())
	}
	if ext := strings.ToLower(filepath.Ext(filename)); !slices.Contains(s.exts, ext) {
		return fmt.Errorf("seed file %s has invalid extension %q for %s", filename, ext, s.name)
	}

	log.Debugf("Seed file %s validated as %s", filename, s.name)
	return nil
}
