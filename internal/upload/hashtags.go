package upload

import (
	"regexp"
	"strings"
)

const maxHashtags = 20

var (
	hashtagSplitRe = regexp.MustCompile(`[\s,]+`)
	hashtagCharsRe = regexp.MustCompile(`[^\p{L}\p{N}_]+`)
)

// ParseHashtags splits free text such as "#Travel, #sunset beach" into
// normalized hashtags.
func ParseHashtags(s string) []string {
	return NormalizeHashtags(hashtagSplitRe.Split(s, -1))
}

// NormalizeHashtags lowercases tags, strips '#' and punctuation, drops empty
// entries and duplicates, and keeps the first maxHashtags in order.
func NormalizeHashtags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := []string{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		tag = strings.TrimLeft(tag, "#")
		tag = hashtagCharsRe.ReplaceAllString(tag, "")
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
		if len(out) == maxHashtags {
			break
		}
	}
	return out
}
