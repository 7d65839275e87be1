package report

import "strings"

// WrapText greedily packs whitespace-separated words into lines no wider than
// maxWidth as reported by measure. Words are never split; a single word wider
// than maxWidth occupies its own line.
func WrapText(text string, maxWidth float64, measure func(string) float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		candidate := line + " " + word
		if measure(candidate) <= maxWidth {
			line = candidate
			continue
		}
		lines = append(lines, line)
		line = word
	}
	return append(lines, line)
}
