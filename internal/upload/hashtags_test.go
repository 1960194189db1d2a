package upload

import (
	"fmt"
	"slices"
	"testing"
)

func TestParseHashtags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{}},
		{"#Travel, #sunset beach", []string{"travel", "sunset", "beach"}},
		{"##go  #GO go", []string{"go"}},
		{"#c++ #rock&roll", []string{"c", "rockroll"}},
		{"#日本 #café", []string{"日本", "café"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseHashtags(tt.in); !slices.Equal(got, tt.want) {
				t.Errorf("ParseHashtags(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeHashtagsLimit(t *testing.T) {
	var tags []string
	for i := 0; i < 30; i++ {
		tags = append(tags, fmt.Sprintf("tag%d", i))
	}

	got := NormalizeHashtags(tags)
	if len(got) != maxHashtags {
		t.Fatalf("Expected %d tags, got %d", maxHashtags, len(got))
	}
	if got[0] != "tag0" || got[maxHashtags-1] != fmt.Sprintf("tag%d", maxHashtags-1) {
		t.Errorf("Expected the first tags in order, got %v", got)
	}
}
