package mdv

import (
	"strconv"
	"strings"
)

// preprocess applies the input-level transforms that run before parsing:
// the from-text filter, blockquote nesting normalization and tab expansion.
func preprocess(content string, cfg *renderConfig) string {
	if cfg.fromText != "" {
		content = filterFromText(content, cfg.fromText)
	}
	content = normalizeBlockquotes(content)
	if strings.ContainsRune(content, '\t') {
		content = strings.ReplaceAll(content, "\t", strings.Repeat(" ", cfg.tabLength))
	}
	return content
}

// filterFromText interprets spec as "Needle" or "Needle:N": output starts at
// the first line containing Needle (line 0 when absent) and, with :N, keeps
// only N lines from there.
func filterFromText(content, spec string) string {
	search := spec
	maxLines := -1
	if text, count, ok := strings.Cut(spec, ":"); ok {
		search = text
		if n, err := strconv.Atoi(count); err == nil {
			maxLines = n
		}
	}

	lines := strings.Split(content, "\n")
	start := 0
	if search != "" {
		for i, line := range lines {
			if strings.Contains(line, search) {
				start = i
				break
			}
		}
	}
	end := len(lines)
	if maxLines >= 0 && start+maxLines < end {
		end = start + maxLines
	}
	return strings.Join(lines[start:end], "\n")
}

// normalizeBlockquotes injects blank lines where the quote marker depth
// drops, so the parser closes the deeper quote levels instead of merging
// adjacent quotes of different depth.
func normalizeBlockquotes(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))
	lastLevel := 0

	for _, line := range lines {
		trimmed := strings.TrimLeft(line, " \t")
		level := quoteMarkerDepth(trimmed)

		if level > 0 && level < lastLevel {
			for i := level; i < lastLevel; i++ {
				result = append(result, "")
			}
		} else if level == 0 && lastLevel > 0 && trimmed != "" {
			for i := 0; i < lastLevel; i++ {
				result = append(result, "")
			}
		}

		result = append(result, line)

		if level > 0 {
			lastLevel = level
		} else if trimmed != "" {
			lastLevel = 0
		}
	}

	return strings.Join(result, "\n")
}

func quoteMarkerDepth(trimmed string) int {
	level := 0
	i := 0
	for i < len(trimmed) && trimmed[i] == '>' {
		level++
		i++
		if i < len(trimmed) && trimmed[i] == ' ' {
			i++
		}
	}
	return level
}
