package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/DMIE-inteligencia/iara/logging"
)

// Loader reads raw document text from disk. Only plain-text formats are
// decoded natively; binary formats need a dedicated extractor in front.
type Loader struct {
	logger logging.Logger
}

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// Logger receives warnings about degraded format support.
	Logger logging.Logger
}

// NewLoader creates a Loader, applying any option functions.
func NewLoader(optFns ...func(o *LoaderOptions)) *Loader {
	opts := LoaderOptions{
		Logger: logging.NewDefaultSlogLogger(),
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Loader{logger: opts.Logger}
}

var textExtensions = map[string]bool{
	".txt": true,
	".md":  true,
	".csv": true,
}

// SupportedExtensions lists the file extensions Load accepts, sorted.
func SupportedExtensions() []string {
	return []string{".csv", ".md", ".txt"}
}

// Load reads the document at path and returns its text content. Unsupported
// extensions and missing files are reported as errors.
func (l *Loader) Load(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !textExtensions[ext] {
		return "", fmt.Errorf("unsupported file format %q, supported formats: %s",
			ext, strings.Join(SupportedExtensions(), ", "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	if len(data) == 0 {
		l.logger.Warn("loaded empty document", "path", path)
	}
	return string(data), nil
}
