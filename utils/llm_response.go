package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var fencedBlockRe = regexp.MustCompile("(?s)```([a-zA-Z]*)[ \\t]*\\r?\\n?(.*?)```")

// ExtractFencedBlock finds the first markdown code fence tagged with the
// given language (or an untagged fence whose content looks like that
// language) and returns its inner text.
//
// LLM responses wrap their payload inconsistently: some tag the fence
// (```json), some leave it bare, some skip the fence entirely. Bare
// fences are accepted when the content starts with the expected opener.
func ExtractFencedBlock(response, lang string) (string, bool) {
	matches := fencedBlockRe.FindAllStringSubmatch(response, -1)
	for _, m := range matches {
		tag := strings.ToLower(m[1])
		body := strings.TrimSpace(m[2])
		if body == "" {
			continue
		}
		if tag == lang {
			return body, true
		}
		if tag == "" && matchesDialect(body, lang) {
			return body, true
		}
	}
	return "", false
}

func matchesDialect(body, lang string) bool {
	switch lang {
	case "json":
		return strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[")
	case "xml":
		return strings.HasPrefix(body, "<")
	default:
		return false
	}
}

// latexSymbols maps Unicode math operators to their backslash-LaTeX
// spelling (without the leading backslash). Models emit these glyphs
// raw, which downstream LaTeX renderers cannot consume.
var latexSymbols = map[rune]string{
	'∈': "in",
	'∉': "notin",
	'≠': "neq",
	'≤': "leq",
	'≥': "geq",
	'×': "times",
	'÷': "div",
	'∞': "infty",
	'∑': "sum",
	'∏': "prod",
	'∫': "int",
	'√': "sqrt",
	'π': "pi",
	'θ': "theta",
	'∪': "cup",
	'∩': "cap",
	'⊂': "subset",
	'⊆': "subseteq",
	'→': "rightarrow",
	'⇒': "Rightarrow",
	'∀': "forall",
	'∃': "exists",
	'Δ': "Delta",
	'α': "alpha",
	'β': "beta",
	'λ': "lambda",
}

// validEscapes are the characters that may legally follow a backslash
// inside a JSON string.
const validEscapes = `"\/bfnrtu`

// RepairJSON applies a fixed set of character-level rewrites that make
// typical LLM "almost JSON" parseable:
//
//   - control characters are dropped (newlines and tabs inside strings
//     become \n and \t escapes)
//   - Unicode math operators inside strings become LaTeX spellings
//   - lone backslashes inside strings (LaTeX commands like \frac) are
//     doubled so they survive JSON decoding
//   - bare object keys and bare word values are quoted
//   - trailing commas before } or ] are dropped
//   - whitespace runs outside strings collapse to one space
//
// The pass is a single string-aware scan; it never fails, it only
// rewrites. Callers validate the result with encoding/json.
func RepairJSON(s string) string {
	runes := []rune(s)
	var out strings.Builder
	out.Grow(len(s) + len(s)/8)

	inString := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if inString {
			switch {
			case r == '"':
				inString = false
				out.WriteRune(r)
			case r == '\\':
				next := rune(0)
				if i+1 < len(runes) {
					next = runes[i+1]
				}
				if strings.ContainsRune(validEscapes, next) {
					out.WriteRune(r)
					out.WriteRune(next)
					i++
				} else {
					// LaTeX command or stray backslash: double it.
					out.WriteString(`\\`)
				}
			case r == '\n':
				out.WriteString(`\n`)
			case r == '\t':
				out.WriteString(`\t`)
			case r < 0x20:
				// other control chars are dropped outright
			default:
				if name, ok := latexSymbols[r]; ok {
					out.WriteString(`\\`)
					out.WriteString(name)
					if i+1 < len(runes) && isWordRune(runes[i+1]) {
						out.WriteRune(' ')
					}
				} else {
					out.WriteRune(r)
				}
			}
			continue
		}

		switch {
		case r == '"':
			inString = true
			out.WriteRune(r)
		case unicode.IsSpace(r):
			// collapse whitespace runs outside strings
			for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
				i++
			}
			out.WriteRune(' ')
		case r == ',':
			// drop trailing commas before a closing brace/bracket
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
			out.WriteRune(r)
		case r < 0x20:
			// stray control characters between tokens
		case isWordStart(r):
			// bare identifier: either an unquoted key or a bare word
			// value. Quote it unless it is a JSON literal.
			j := i
			for j < len(runes) && isWordRune(runes[j]) {
				j++
			}
			word := string(runes[i:j])
			i = j - 1

			k := j
			for k < len(runes) && unicode.IsSpace(runes[k]) {
				k++
			}
			isKey := k < len(runes) && runes[k] == ':'

			if !isKey && (word == "true" || word == "false" || word == "null") {
				out.WriteString(word)
			} else {
				out.WriteRune('"')
				out.WriteString(word)
				out.WriteRune('"')
			}
		default:
			out.WriteRune(r)
		}
	}

	return strings.TrimSpace(out.String())
}

func isWordStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// questionFields are the names the lenient scanner looks for.
var questionFields = []string{"title", "solution", "explanation", "difficultyLevelCode", "questionNo"}

// ExtractQuestionFields is the last-resort scanner for severely
// malformed JSON. It locates the five core question fields by name and
// captures their values with brace matching, tolerating nested braces
// inside string content. Object-valued fields keep their raw "{...}"
// substring; scalar fields are unquoted.
//
// Returns nil when none of the fields can be located.
func ExtractQuestionFields(s string) map[string]string {
	found := make(map[string]string)
	for _, name := range questionFields {
		if v, ok := scanFieldValue(s, name); ok {
			found[name] = v
		}
	}
	if len(found) == 0 {
		return nil
	}
	return found
}

// scanFieldValue finds `name` used as a key (quoted or bare) and
// captures the value that follows the colon.
func scanFieldValue(s, name string) (string, bool) {
	for start := 0; start < len(s); {
		idx := strings.Index(s[start:], name)
		if idx < 0 {
			return "", false
		}
		idx += start
		start = idx + len(name)

		// word boundaries: "title" must not match "englishTitle" or
		// "seoTitle"/"titleCase"
		if idx > 0 && isWordByte(s[idx-1]) {
			continue
		}
		end := idx + len(name)
		if end < len(s) && isWordByte(s[end]) {
			continue
		}

		// skip closing quote and whitespace up to the colon
		j := end
		for j < len(s) && (s[j] == '"' || s[j] == '\'' || s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j >= len(s) || s[j] != ':' {
			continue
		}
		j++
		for j < len(s) && (s[j] == ' ' || s[j] == '\t' || s[j] == '\n' || s[j] == '\r') {
			j++
		}
		if j >= len(s) {
			return "", false
		}

		switch s[j] {
		case '{':
			if v, ok := matchBraces(s[j:]); ok {
				return v, true
			}
		case '"':
			if v, ok := scanQuoted(s[j:]); ok {
				return v, true
			}
		default:
			// bare scalar: read until a delimiter
			k := j
			for k < len(s) && s[k] != ',' && s[k] != '}' && s[k] != '\n' {
				k++
			}
			v := strings.TrimSpace(s[j:k])
			if v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// matchBraces returns the substring from the opening brace to its
// matching close, tracking string state so braces inside values do not
// unbalance the count.
func matchBraces(s string) (string, bool) {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				return s[:i+1], true
			}
		}
	}
	return "", false
}

// scanQuoted returns the content of a double-quoted string starting at
// s[0] == '"', honoring backslash escapes.
func scanQuoted(s string) (string, bool) {
	escaped := false
	for i := 1; i < len(s); i++ {
		if escaped {
			escaped = false
			continue
		}
		if s[i] == '\\' {
			escaped = true
			continue
		}
		if s[i] == '"' {
			return s[1:i], true
		}
	}
	return "", false
}
