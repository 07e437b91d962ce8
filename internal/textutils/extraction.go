// Package textutils pulls payment references out of free statement text.
package textutils

import (
	"regexp"
	"strings"
)

var referencePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:ref(?:erence)?|no\.? ?ref)[\s.:#-]*([A-Z0-9][A-Z0-9/-]*\d[A-Z0-9/-]*)`),
	regexp.MustCompile(`(?i)\b((?:INV|INVOICE|PO|SO)[-/#]?\d[A-Z0-9/-]*)`),
	regexp.MustCompile(`(?i)\b(?:booking no|no booking)[\s.:]*([\d-]+)`),
}

// ExtractReference returns the first payment reference found in text, or ""
// when there is none. Must contain a digit to count as a reference.
func ExtractReference(text string) string {
	for _, re := range referencePatterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			return strings.ToUpper(strings.TrimRight(m[1], "-/"))
		}
	}
	return ""
}

// ContainsReference reports whether ref appears in text as a whole token,
// ignoring case.
func ContainsReference(text, ref string) bool {
	ref = strings.TrimSpace(ref)
	if ref == "" || text == "" {
		return false
	}
	re, err := regexp.Compile(`(?i)(?:^|[^A-Za-z0-9])` + regexp.QuoteMeta(ref) + `(?:$|[^A-Za-z0-9])`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}
