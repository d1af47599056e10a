package lexical

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Parser flattens Lexical JSON into plain text. Search matches against the
// flattened form so markup never influences results.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse converts a Lexical JSON string to plain text.
func (p *Parser) Parse(jsonContent string) (string, error) {
	var root LexicalRoot
	if err := json.Unmarshal([]byte(jsonContent), &root); err != nil {
		return "", fmt.Errorf("failed to parse lexical json: %w", err)
	}

	var sb strings.Builder
	p.walkNode(root.Root, &sb)
	return strings.TrimSpace(sb.String()), nil
}

// PlainText is a convenience function for raw content. It attempts to parse
// as Lexical JSON; anything else (legacy plain strings, malformed markup)
// passes through unchanged.
func PlainText(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, `{"root":`) {
		return content
	}

	p := NewParser()
	text, err := p.Parse(trimmed)
	if err != nil {
		return content
	}
	return text
}

func (p *Parser) walkNode(node Node, sb *strings.Builder) {
	switch node.Type {
	case "text":
		sb.WriteString(node.Text)

	case "linebreak":
		sb.WriteString("\n")

	case "root", "paragraph", "heading", "quote", "list", "listitem", "link":
		for _, child := range node.Children {
			p.walkNode(child, sb)
		}
		if isBlock(node.Type) {
			sb.WriteString("\n")
		}

	default:
		// Unknown node kinds still contribute their text content.
		for _, child := range node.Children {
			p.walkNode(child, sb)
		}
	}
}

func isBlock(nodeType string) bool {
	switch nodeType {
	case "paragraph", "heading", "quote", "listitem":
		return true
	}
	return false
}
