package vdf

import (
	"bufio"
	"io"
	"strings"
	"unicode"
)

// Node is a parsed manifest block: string keys mapping to either string
// values or nested Nodes.
type Node map[string]any

// Parse decodes the brace-delimited key/value manifest dialect. It never
// fails: malformed input yields as much structure as was recognized, and
// callers validate required fields before trusting a record. Mixed tab and
// space indentation, missing values, and unterminated blocks are tolerated.
func Parse(r io.Reader) Node {
	tokens := tokenize(r)
	node, _ := parseBlock(tokens, 0)
	return node
}

// ParseString decodes manifest text.
func ParseString(text string) Node {
	return Parse(strings.NewReader(text))
}

// Lookup returns the value for key, matching case-insensitively so wrapper
// blocks like "AppState" and "appstate" resolve the same way. Exact-case
// matches win when both exist.
func (n Node) Lookup(key string) (any, bool) {
	if n == nil {
		return nil, false
	}
	if v, ok := n[key]; ok {
		return v, true
	}
	for k, v := range n {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// String returns the string value for key, or "" when absent or nested.
func (n Node) String(key string) string {
	v, ok := n.Lookup(key)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Child returns the nested block for key, or nil when absent or scalar.
func (n Node) Child(key string) Node {
	v, ok := n.Lookup(key)
	if !ok {
		return nil
	}
	child, _ := v.(Node)
	return child
}

type token struct {
	kind tokenKind
	text string
}

type tokenKind int

const (
	tokenString tokenKind = iota
	tokenOpen
	tokenClose
)

func tokenize(r io.Reader) []token {
	var tokens []token
	reader := bufio.NewReader(r)
	for {
		ch, _, err := reader.ReadRune()
		if err != nil {
			return tokens
		}
		switch {
		case ch == '{':
			tokens = append(tokens, token{kind: tokenOpen})
		case ch == '}':
			tokens = append(tokens, token{kind: tokenClose})
		case ch == '"':
			tokens = append(tokens, token{kind: tokenString, text: readQuoted(reader)})
		case ch == '/':
			// Line comments run to end of line.
			if next, _, err := reader.ReadRune(); err == nil {
				if next == '/' {
					skipLine(reader)
				} else {
					_ = reader.UnreadRune()
				}
			}
		case unicode.IsSpace(ch):
			// Indentation is insignificant.
		default:
			tokens = append(tokens, token{kind: tokenString, text: readBare(reader, ch)})
		}
	}
}

func readQuoted(reader *bufio.Reader) string {
	var builder strings.Builder
	for {
		ch, _, err := reader.ReadRune()
		if err != nil {
			return builder.String()
		}
		switch ch {
		case '"':
			return builder.String()
		case '\\':
			escaped, _, err := reader.ReadRune()
			if err != nil {
				return builder.String()
			}
			switch escaped {
			case 'n':
				builder.WriteRune('\n')
			case 't':
				builder.WriteRune('\t')
			default:
				builder.WriteRune(escaped)
			}
		case '\n':
			// Unterminated quote: keep what was read.
			return builder.String()
		default:
			builder.WriteRune(ch)
		}
	}
}

func readBare(reader *bufio.Reader, first rune) string {
	var builder strings.Builder
	builder.WriteRune(first)
	for {
		ch, _, err := reader.ReadRune()
		if err != nil {
			return builder.String()
		}
		if unicode.IsSpace(ch) || ch == '{' || ch == '}' || ch == '"' {
			_ = reader.UnreadRune()
			return builder.String()
		}
		builder.WriteRune(ch)
	}
}

func skipLine(reader *bufio.Reader) {
	for {
		ch, _, err := reader.ReadRune()
		if err != nil || ch == '\n' {
			return
		}
	}
}

// parseBlock consumes tokens starting at pos until a closing brace or the
// end of input, returning the assembled node and the next position.
func parseBlock(tokens []token, pos int) (Node, int) {
	node := Node{}
	for pos < len(tokens) {
		tok := tokens[pos]
		switch tok.kind {
		case tokenClose:
			return node, pos + 1
		case tokenOpen:
			// Block with no key: descend and discard to stay resilient.
			_, pos = parseBlock(tokens, pos+1)
		case tokenString:
			key := tok.text
			pos++
			if pos >= len(tokens) {
				// Trailing key with no value.
				node[key] = ""
				return node, pos
			}
			switch tokens[pos].kind {
			case tokenOpen:
				var child Node
				child, pos = parseBlock(tokens, pos+1)
				node[key] = child
			case tokenString:
				node[key] = tokens[pos].text
				pos++
			case tokenClose:
				node[key] = ""
				return node, pos + 1
			}
		}
	}
	return node, pos
}
