package extract

import (
	"fmt"
	"os"
	"strings"
)

// parsed holds the documented public interface of a single .py file.
type parsed struct {
	doc       string
	classes   []Symbol
	functions []Symbol
}

// parseFile extracts the module docstring and public top-level symbols from a
// Python source file. Parsing is line-based and intentionally shallow: it
// reads signatures and docstring summaries, not semantics. Structural damage
// (unterminated docstrings, unclosed signatures) is an error so a broken
// module aborts the run instead of being silently skipped.
func parseFile(path string) (*parsed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	lines := strings.Split(string(data), "\n")

	p := &parsed{}

	doc, next, err := moduleDocstring(lines)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.doc = doc

	i := next
	for i < len(lines) {
		line := lines[i]
		kind, name := topLevelDefinition(line)
		if kind == "" {
			i++
			continue
		}

		signature, bodyStart, err := readSignature(lines, i)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		if strings.HasPrefix(name, "_") {
			// Private API is not documented, but the body docstring still has
			// to be structurally sound.
			if _, _, err := bodyDocstring(lines, bodyStart); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			i = bodyStart
			continue
		}

		summary, after, err := bodyDocstring(lines, bodyStart)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		sym := Symbol{Name: name, Signature: signature, Doc: summary}
		if kind == "class" {
			p.classes = append(p.classes, sym)
		} else {
			p.functions = append(p.functions, sym)
		}
		i = after
	}

	return p, nil
}

// topLevelDefinition reports whether line opens a column-zero class or def,
// returning its kind and name.
func topLevelDefinition(line string) (kind, name string) {
	var rest string
	switch {
	case strings.HasPrefix(line, "class "):
		kind, rest = "class", line[len("class "):]
	case strings.HasPrefix(line, "def "):
		kind, rest = "def", line[len("def "):]
	case strings.HasPrefix(line, "async def "):
		kind, rest = "def", line[len("async def "):]
	default:
		return "", ""
	}
	end := strings.IndexAny(rest, "(:")
	if end < 0 {
		end = len(rest)
	}
	name = strings.TrimSpace(rest[:end])
	if name == "" {
		return "", ""
	}
	return kind, name
}

// readSignature collects a possibly multi-line signature starting at lines[i].
// It returns the normalized one-line signature and the index of the first body
// line.
func readSignature(lines []string, i int) (string, int, error) {
	depth := 0
	var parts []string
	for j := i; j < len(lines); j++ {
		line := lines[j]
		for k := 0; k < len(line); k++ {
			switch line[k] {
			case '(':
				depth++
			case ')':
				depth--
			case ':':
				if depth > 0 {
					// Annotation or lambda inside the parameter list.
					continue
				}
				// The first colon outside the parameter list ends the
				// signature. Anything after it is an inline body
				// (def f(x): return x), not part of the signature.
				if part := strings.TrimSpace(line[:k]); part != "" {
					parts = append(parts, part)
				}
				return strings.Join(parts, " "), j + 1, nil
			}
		}
		if part := strings.TrimSpace(line); part != "" {
			parts = append(parts, part)
		}
	}
	return "", 0, fmt.Errorf("unterminated signature at line %d", i+1)
}

// bodyDocstring returns the first line of the docstring opening a definition
// body, and the index to resume scanning from.
func bodyDocstring(lines []string, start int) (string, int, error) {
	for j := start; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" {
			continue
		}
		if !isIndented(lines[j]) {
			// Body ended without a docstring.
			return "", start, nil
		}
		delim := docstringDelimiter(trimmed)
		if delim == "" {
			return "", start, nil
		}
		return consumeDocstring(lines, j, delim)
	}
	return "", start, nil
}

// moduleDocstring returns the module-level docstring and the index of the
// first line after it.
func moduleDocstring(lines []string) (string, int, error) {
	for j := 0; j < len(lines); j++ {
		trimmed := strings.TrimSpace(lines[j])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		delim := docstringDelimiter(trimmed)
		if delim == "" {
			return "", 0, nil
		}
		doc, next, err := consumeDocstringFull(lines, j, delim)
		return doc, next, err
	}
	return "", 0, nil
}

// consumeDocstring reads a docstring and returns only its summary line.
func consumeDocstring(lines []string, j int, delim string) (string, int, error) {
	full, next, err := consumeDocstringFull(lines, j, delim)
	if err != nil {
		return "", 0, err
	}
	summary := full
	if idx := strings.Index(full, "\n"); idx >= 0 {
		summary = full[:idx]
	}
	return strings.TrimSpace(summary), next, nil
}

// consumeDocstringFull reads a triple-quoted string starting on lines[j] and
// returns its dedented content plus the index after the closing delimiter.
func consumeDocstringFull(lines []string, j int, delim string) (string, int, error) {
	trimmed := strings.TrimSpace(lines[j])
	open := strings.Index(trimmed, delim)
	rest := trimmed[open+len(delim):]

	// Single-line docstring.
	if end := strings.Index(rest, delim); end >= 0 {
		return strings.TrimSpace(rest[:end]), j + 1, nil
	}

	var content []string
	if strings.TrimSpace(rest) != "" {
		content = append(content, strings.TrimSpace(rest))
	}
	for k := j + 1; k < len(lines); k++ {
		line := lines[k]
		if end := strings.Index(line, delim); end >= 0 {
			if chunk := strings.TrimSpace(line[:end]); chunk != "" {
				content = append(content, chunk)
			}
			return strings.Join(content, "\n"), k + 1, nil
		}
		content = append(content, strings.TrimSpace(line))
	}
	return "", 0, fmt.Errorf("unterminated docstring at line %d", j+1)
}

// docstringDelimiter returns the triple-quote delimiter opening trimmed, or ""
// when the line does not open a string literal.
func docstringDelimiter(trimmed string) string {
	s := trimmed
	// String prefixes (r"""...""", b'''...''') are part of the literal syntax.
	for len(s) > 0 {
		c := s[0] | 0x20 // lowercase
		if c == 'r' || c == 'b' || c == 'u' || c == 'f' {
			s = s[1:]
			continue
		}
		break
	}
	if strings.HasPrefix(s, `"""`) {
		return `"""`
	}
	if strings.HasPrefix(s, "'''") {
		return "'''"
	}
	return ""
}

func isIndented(line string) bool {
	return strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
}
