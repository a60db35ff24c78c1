// Package bible finds scripture references such as "John 3:16" or
// "1 Corinthians 13:4-7" in free text.
package bible

import (
	"regexp"
	"sort"
	"strings"
)

// Books is the canonical 66-book table used for matching.
var Books = []string{
	"Genesis", "Exodus", "Leviticus", "Numbers", "Deuteronomy",
	"Joshua", "Judges", "Ruth", "1 Samuel", "2 Samuel", "1 Kings", "2 Kings",
	"1 Chronicles", "2 Chronicles", "Ezra", "Nehemiah", "Esther",
	"Job", "Psalms", "Proverbs", "Ecclesiastes", "Song of Solomon",
	"Isaiah", "Jeremiah", "Lamentations", "Ezekiel", "Daniel",
	"Hosea", "Joel", "Amos", "Obadiah", "Jonah", "Micah",
	"Nahum", "Habakkuk", "Zephaniah", "Haggai", "Zechariah", "Malachi",
	"Matthew", "Mark", "Luke", "John", "Acts", "Romans", "1 Corinthians", "2 Corinthians",
	"Galatians", "Ephesians", "Philippians", "Colossians",
	"1 Thessalonians", "2 Thessalonians", "1 Timothy", "2 Timothy",
	"Titus", "Philemon", "Hebrews", "James", "1 Peter", "2 Peter",
	"1 John", "2 John", "3 John", "Jude", "Revelation",
}

var referencePattern = compilePattern(Books)

func compilePattern(books []string) *regexp.Regexp {
	quoted := make([]string, len(books))
	for i, b := range books {
		quoted[i] = regexp.QuoteMeta(b)
	}
	// <book> <chapter>[:<verse>[-<verse>]]
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\s+\d{1,3}(?::\d{1,3}(?:-\d{1,3})?)?\b`)
}

// Detect returns every distinct reference literally present in text.
// The result is sorted only so output is stable; treat it as a set.
func Detect(text string) []string {
	matches := referencePattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return []string{}
	}

	seen := make(map[string]struct{}, len(matches))
	refs := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimSpace(m)
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		refs = append(refs, m)
	}
	sort.Strings(refs)
	return refs
}
