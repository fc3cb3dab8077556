package utils

import "strings"

// CleanImages trims image URLs, drops blanks and repeats, and keeps order.
// It never returns nil so listings always encode "images": [].
func CleanImages(images []string) []string {
	out := make([]string, 0, len(images))
	seen := make(map[string]struct{}, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if _, dup := seen[img]; dup {
			continue
		}
		seen[img] = struct{}{}
		out = append(out, img)
	}
	return out
}
