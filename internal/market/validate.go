package market

import (
	"fmt"
	"slices"
	"strings"
)

// NormalizeTags trims and lowercases tags, drops blanks and duplicates, and
// rejects more than MaxTags.
func NormalizeTags(tags []string) ([]string, error) {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, fmt.Errorf("%w: provide at most %d tags", ErrInvalidInput, MaxTags)
	}
	return out, nil
}

// NormalizeImages trims image references, drops blanks and rejects more than
// MaxImages. Order is kept; the first image is the primary one.
func NormalizeImages(images []string) ([]string, error) {
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		out = append(out, img)
	}
	if len(out) > MaxImages {
		return nil, fmt.Errorf("%w: provide at most %d images", ErrInvalidInput, MaxImages)
	}
	return out, nil
}
