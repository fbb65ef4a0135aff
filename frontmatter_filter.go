package mdv

import "bytes"

// stripFrontMatter removes an opening front matter section (---, +++ or ;;;
// fenced metadata) from src. The opener must be the first line, the second
// line must look like metadata, and a matching closing delimiter must exist;
// otherwise src is returned unchanged.
func stripFrontMatter(src []byte) []byte {
	body := trimBOM(src)
	openLine, rest, ok := cutLine(body)
	if !ok {
		return src
	}
	delim, isFrontMatter := frontMatterDelimiter(openLine)
	if !isFrontMatter {
		return src
	}
	secondLine, _, ok := cutLine(rest)
	if !ok || !frontMatterMetadataLikely(secondLine) {
		return src
	}

	for len(rest) > 0 {
		line, next, ok := cutLine(rest)
		if !ok {
			break
		}
		if bytes.Equal(bytes.TrimSpace(line), delim) {
			return next
		}
		rest = next
	}
	return src
}

func cutLine(src []byte) (line, rest []byte, ok bool) {
	if len(src) == 0 {
		return nil, nil, false
	}
	if i := bytes.IndexByte(src, '\n'); i >= 0 {
		return trimCR(src[:i]), src[i+1:], true
	}
	return trimCR(src), nil, true
}

func frontMatterDelimiter(line []byte) ([]byte, bool) {
	trimmed := bytes.TrimSpace(line)
	switch {
	case bytes.Equal(trimmed, []byte("---")):
		return []byte("---"), true
	case bytes.Equal(trimmed, []byte("+++")):
		return []byte("+++"), true
	case bytes.Equal(trimmed, []byte(";;;")):
		return []byte(";;;"), true
	default:
		return nil, false
	}
}

func frontMatterMetadataLikely(line []byte) bool {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return false
	}
	if bytes.HasPrefix(trimmed, []byte("{")) || bytes.HasPrefix(trimmed, []byte("[")) {
		return true
	}
	return bytes.ContainsRune(trimmed, ':') || bytes.ContainsRune(trimmed, '=')
}

func trimCR(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

func trimBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}
