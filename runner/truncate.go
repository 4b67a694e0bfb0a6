package runner

import "strings"

// tailTruncate keeps the last maxLines lines or maxBytes bytes of s,
// whichever limit is hit first, collecting complete lines backwards from the
// end. If the last line alone exceeds maxBytes, its tail is returned.
func tailTruncate(s string, maxLines, maxBytes int) string {
	if s == "" {
		return ""
	}
	s = strings.TrimRight(s, "\n")
	if len(s) <= maxBytes && strings.Count(s, "\n")+1 <= maxLines {
		return s
	}

	lines := strings.Split(s, "\n")
	var collected []string
	size := 0
	for i := len(lines) - 1; i >= 0 && len(collected) < maxLines; i-- {
		cost := len(lines[i])
		if len(collected) > 0 {
			cost++ // joining newline
		}
		if size+cost > maxBytes {
			if len(collected) == 0 {
				tail := lines[i]
				if len(tail) > maxBytes {
					tail = tail[len(tail)-maxBytes:]
				}
				return tail
			}
			break
		}
		collected = append(collected, lines[i])
		size += cost
	}

	for i, j := 0, len(collected)-1; i < j; i, j = i+1, j-1 {
		collected[i], collected[j] = collected[j], collected[i]
	}
	return strings.Join(collected, "\n")
}
