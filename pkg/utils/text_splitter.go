package utils

import "strings"

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with an 'overlap' to preserve context at boundaries. Chunk
// ends prefer a paragraph break, then a newline, then a space near the
// cut point so words are not split in half.
func SplitText(text string, chunkSize int, overlap int) []string {
	if chunkSize <= 0 {
		return nil
	}
	if len([]rune(text)) <= chunkSize {
		return []string{text}
	}

	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	var chunks []string
	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end >= totalLen {
			chunks = append(chunks, string(runes[i:totalLen]))
			break
		}

		end = adjustBreak(runes, i, end)
		chunks = append(chunks, string(runes[i:end]))
	}

	return chunks
}

// adjustBreak moves the cut point back to the nearest separator within
// the last tenth of the chunk. Preference order: blank line, newline,
// space. Strict slicing is kept when no separator is close enough.
func adjustBreak(runes []rune, start, end int) int {
	window := (end - start) / 10
	if window == 0 {
		return end
	}
	floor := end - window

	segment := string(runes[floor:end])
	for _, sep := range []string{"\n\n", "\n", " "} {
		if idx := strings.LastIndex(segment, sep); idx > 0 {
			return floor + len([]rune(segment[:idx+len(sep)]))
		}
	}
	return end
}
