package domain

import "strings"

// WordsPerMinute is the reading speed used by EstimateReadingMinutes.
const WordsPerMinute = 200

// EstimateReadingMinutes returns ceil(words/WordsPerMinute) over all headings and body paragraphs.
// Empty content yields 0; callers that want "at least 1 min" clamp on display.
func EstimateReadingMinutes(content []ContentBlock) int {
	total := CountWords(content)
	return (total + WordsPerMinute - 1) / WordsPerMinute
}

// CountWords counts whitespace-separated tokens in headings and trimmed body paragraphs.
func CountWords(content []ContentBlock) int {
	total := 0
	for _, block := range content {
		if block.Heading != nil {
			total += len(strings.Fields(*block.Heading))
		}
		for _, paragraph := range block.Body {
			total += len(strings.Fields(strings.TrimSpace(paragraph.Text)))
		}
	}
	return total
}
