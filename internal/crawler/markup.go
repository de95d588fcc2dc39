package crawler

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ClassPredicate matches the raw class attribute of an element
type ClassPredicate func(class string) bool

// hasClass matches elements carrying the exact class token
func hasClass(name string) ClassPredicate {
	return func(class string) bool {
		for _, token := range strings.Fields(class) {
			if token == name {
				return true
			}
		}
		return false
	}
}

// ClassContains matches elements with any class token containing sub,
// so "bg-yellow" matches "bg-yellow-400".
func ClassContains(sub string) ClassPredicate {
	return func(class string) bool {
		for _, token := range strings.Fields(class) {
			if strings.Contains(token, sub) {
				return true
			}
		}
		return false
	}
}

// ClassMatches matches the whole class attribute against re
func ClassMatches(re *regexp.Regexp) ClassPredicate {
	return func(class string) bool {
		return re.MatchString(class)
	}
}

// FindFirst returns the first descendant with the given tag whose class
// attribute satisfies pred. The result has zero length when nothing matches.
func FindFirst(s *goquery.Selection, tag string, pred ClassPredicate) *goquery.Selection {
	var found *goquery.Selection
	s.Find(tag).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		class, ok := el.Attr("class")
		if ok && pred(class) {
			found = el
			return false
		}
		return true
	})
	if found == nil {
		return s.Slice(0, 0)
	}
	return found
}

// FindByOwnText returns the first descendant whose own text nodes match re
func FindByOwnText(s *goquery.Selection, re *regexp.Regexp) *goquery.Selection {
	var found *goquery.Selection
	s.Find("*").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		if re.MatchString(OwnText(el)) {
			found = el
			return false
		}
		return true
	})
	if found == nil {
		return s.Slice(0, 0)
	}
	return found
}

// Text returns the trimmed text of the first element in s
func Text(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(s.First().Text())
}

// OwnText returns the trimmed text of s excluding its child elements
func OwnText(s *goquery.Selection) string {
	var b strings.Builder
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			b.WriteString(c.Text())
		}
	})
	return strings.TrimSpace(b.String())
}

// Attr returns the trimmed attribute value of the first element in s,
// reporting false when it is missing or blank.
func Attr(s *goquery.Selection, name string) (string, bool) {
	if s.Length() == 0 {
		return "", false
	}
	value, ok := s.First().Attr(name)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}
