package graph

import (
	"strings"
	"unicode"
)

// splitIntoSentences splits text into sentences. Blank lines end a sentence,
// single line breaks inside a paragraph are joined with a space.
func splitIntoSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		for _, part := range splitLineIntoSentences(trimmed) {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(part)
			if endsSentence(part) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

func endsSentence(s string) bool {
	s = strings.TrimRight(strings.TrimSpace(s), "\"')]}")
	return strings.HasSuffix(s, ".") || strings.HasSuffix(s, "!") || strings.HasSuffix(s, "?")
}

// splitLineIntoSentences cuts a single line after terminal punctuation.
// A period directly after a digit and followed by a space is a list marker
// ("1. First") and does not end the sentence.
func splitLineIntoSentences(line string) []string {
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(line); i++ {
		current.WriteByte(line[i])

		if line[i] != '.' && line[i] != '!' && line[i] != '?' {
			continue
		}
		if i > 0 && unicode.IsDigit(rune(line[i-1])) && i+1 < len(line) && line[i+1] == ' ' {
			continue
		}

		j := i + 1
		for j < len(line) && strings.IndexByte(".!?\"')]}", line[j]) >= 0 {
			current.WriteByte(line[j])
			j++
		}

		if sentence := strings.TrimSpace(current.String()); sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
		i = j - 1
	}

	if remaining := strings.TrimSpace(current.String()); remaining != "" {
		sentences = append(sentences, remaining)
	}

	return sentences
}

// splitIntoUnits packs consecutive sentences of text into units of at most
// maxTokens tokens as measured by count. A sentence longer than maxTokens
// forms a unit of its own. maxTokens <= 0 returns the whole text as one unit.
func splitIntoUnits(text string, maxTokens int, count func(string) int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxTokens <= 0 || count(text) <= maxTokens {
		return []string{text}
	}

	var units []string
	var current []string
	for _, sentence := range splitIntoSentences(text) {
		candidate := strings.Join(append(current, sentence), " ")
		if len(current) > 0 && count(candidate) > maxTokens {
			units = append(units, strings.Join(current, " "))
			current = current[:0]
		}
		current = append(current, sentence)
	}
	if len(current) > 0 {
		units = append(units, strings.Join(current, " "))
	}
	return units
}
