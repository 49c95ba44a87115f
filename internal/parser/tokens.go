package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// intTokenRe matches runs of digits within free text.
var intTokenRe = regexp.MustCompile(`\d+`)

// whitespaceRe collapses runs of whitespace when normalizing element text.
var whitespaceRe = regexp.MustCompile(`\s+`)

// tokenizeInts extracts every integer token from s in order.
func tokenizeInts(s string) []int {
	matches := intTokenRe.FindAllString(s, -1)
	if len(matches) == 0 {
		return nil
	}

	nums := make([]int, 0, len(matches))
	for _, m := range matches {
		n, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}
	return nums
}

// normalizeSpace collapses whitespace runs and trims the result.
func normalizeSpace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}
