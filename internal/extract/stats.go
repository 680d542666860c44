package extract

import (
	"strings"
	"unicode"
)

// Stats summarizes extracted text.
type Stats struct {
	Words          int `json:"words"`
	Characters     int `json:"characters"`
	Uppercase      int `json:"-"`
	ReadingMinutes int `json:"readingMinutes"`
}

// wordsPerMinute is the reading pace used for time estimates.
const wordsPerMinute = 200

// TextStats counts words and characters of text.
func TextStats(text string) Stats {
	s := Stats{
		Words:      len(strings.Fields(text)),
		Characters: len([]rune(text)),
	}
	for _, r := range text {
		if unicode.IsUpper(r) {
			s.Uppercase++
		}
	}
	s.ReadingMinutes = s.Words/wordsPerMinute + 1
	return s
}
