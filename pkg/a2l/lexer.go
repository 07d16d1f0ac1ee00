package a2l

import (
	"unicode/utf8"

	"github.com/pkg/errors"
)

type tokenKind int

const (
	tokWord tokenKind = iota
	tokString
	tokBegin
	tokEnd
)

type token struct {
	kind tokenKind
	text string
	line int
}

// decode turns the raw file into a string. A2L files are usually latin-1,
// anything that is not valid UTF-8 is decoded byte by byte.
func decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func lex(src string) ([]token, error) {
	var tokens []token
	line := 1
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			line++
			i++
		case isSpace(c):
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			start := line
			end := -1
			for j := i + 2; j+1 < len(src); j++ {
				if src[j] == '\n' {
					line++
				}
				if src[j] == '*' && src[j+1] == '/' {
					end = j + 2
					break
				}
			}
			if end < 0 {
				return nil, errors.Errorf("line %d: unterminated comment", start)
			}
			i = end
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '"':
			text, next, lines, err := lexString(src, i)
			if err != nil {
				return nil, errors.Wrapf(err, "line %d", line)
			}
			tokens = append(tokens, token{kind: tokString, text: text, line: line})
			line += lines
			i = next
		default:
			j := i
			for j < len(src) && !isSpace(src[j]) && src[j] != '"' {
				j++
			}
			word := src[i:j]
			kind := tokWord
			switch word {
			case "/begin":
				kind = tokBegin
			case "/end":
				kind = tokEnd
			}
			tokens = append(tokens, token{kind: kind, text: word, line: line})
			i = j
		}
	}
	return tokens, nil
}

// lexString reads a quoted string starting at src[start]. Both \" and ""
// are accepted as an escaped quote.
func lexString(src string, start int) (string, int, int, error) {
	buf := make([]byte, 0, 32)
	lines := 0
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\\' && i+1 < len(src) && (src[i+1] == '"' || src[i+1] == '\\'):
			buf = append(buf, src[i+1])
			i += 2
		case c == '"' && i+1 < len(src) && src[i+1] == '"' && i != start+1:
			buf = append(buf, '"')
			i += 2
		case c == '"':
			return string(buf), i + 1, lines, nil
		default:
			if c == '\n' {
				lines++
			}
			buf = append(buf, c)
			i++
		}
	}
	return "", 0, 0, errors.New("unterminated string")
}
