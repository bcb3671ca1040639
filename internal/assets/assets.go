// Package assets handles the local image files the pipeline works
// with: the shared logo and product shots, the reference ad
// directory, and output naming.
package assets

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"adcraft/internal/gemini"
)

// LoadError reports a reference/logo/product asset that is missing or
// not recognizable as an image. Fatal for the asset's consumer.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load asset %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".gif":  {},
	".webp": {},
}

// Load reads an image file into memory and sniffs its MIME type. Files
// whose content does not look like an image are rejected, so a corrupt
// asset fails here instead of inside a model call.
func Load(path string) (gemini.ImageInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return gemini.ImageInput{}, &LoadError{Path: path, Err: err}
	}

	mimeType := sniffMime(data, path)
	if !strings.HasPrefix(mimeType, "image/") {
		return gemini.ImageInput{}, &LoadError{Path: path, Err: fmt.Errorf("not an image (detected %s)", mimeType)}
	}

	return gemini.ImageInput{Data: data, MimeType: mimeType}, nil
}

// DiscoverReferences lists the reference ads in dir, filtered to the
// recognized image extensions. The order is stable for readable logs
// but carries no meaning for the batch.
func DiscoverReferences(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read references dir: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := imageExtensions[ext]; !ok {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	sort.Strings(paths)
	return paths, nil
}

// OutputName derives the output file name for a reference image:
// <stem>_new_1_gen.png.
func OutputName(refPath string) string {
	base := filepath.Base(refPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_new_1_gen.png"
}

func sniffMime(data []byte, path string) string {
	mimeType := http.DetectContentType(data)
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	// Extension fallback when sniffing is inconclusive.
	if mimeType == "" || mimeType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".png":
			return "image/png"
		case ".jpg", ".jpeg":
			return "image/jpeg"
		case ".gif":
			return "image/gif"
		case ".bmp":
			return "image/bmp"
		case ".webp":
			return "image/webp"
		}
	}
	return mimeType
}
