package richtext

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Doc is the structured document produced by the rich text editor widget.
// The tree mirrors the editor's JSON: a "doc" root containing paragraph,
// bulletList and orderedList nodes whose leaves are text runs with optional
// formatting marks. The server treats it as an opaque value with a lossless
// string serialization; it never rewrites the tree.
type Doc struct {
	Type    string `json:"type"`
	Content []Node `json:"content"`
}

// Node is a single node in the document tree. Text leaves carry Text and
// optional Marks; container nodes carry Content.
type Node struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	Marks   []Mark `json:"marks,omitempty"`
	Content []Node `json:"content,omitempty"`
}

// Mark is a formatting annotation on a text run (bold, italic, ...).
type Mark struct {
	Type string `json:"type"`
}

// Empty returns a present-but-empty document, distinct from a nil *Doc
// which means "no content at all".
func Empty() *Doc {
	return &Doc{Type: "doc", Content: []Node{}}
}

// Parse decodes the transport string into a document tree. It performs the
// same shape check the editor boundary does: the root must be a "doc" node
// with a content array. Node types below the root are not restricted, so
// the round trip stays lossless for whatever the editor produced.
func Parse(s string) (*Doc, error) {
	var d Doc
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, fmt.Errorf("parse rich text: %w", err)
	}
	if d.Type != "doc" {
		return nil, fmt.Errorf("parse rich text: root type %q, want \"doc\"", d.Type)
	}
	if d.Content == nil {
		d.Content = []Node{}
	}
	return &d, nil
}

// Serialize encodes the document back to its transport string.
func (d *Doc) Serialize() (string, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("serialize rich text: %w", err)
	}
	return string(b), nil
}

// IsEmpty reports whether the document renders as no visible content.
func (d *Doc) IsEmpty() bool {
	return d == nil || !hasText(d.Content)
}

func hasText(nodes []Node) bool {
	for _, n := range nodes {
		if n.Type == "text" && strings.TrimSpace(n.Text) != "" {
			return true
		}
		if hasText(n.Content) {
			return true
		}
	}
	return false
}

// PlainText flattens the tree to plain text, one line per block node.
// Used for logging and search, never for storage.
func (d *Doc) PlainText() string {
	if d == nil {
		return ""
	}
	var lines []string
	for _, block := range d.Content {
		var b strings.Builder
		collectText(block, &b)
		if s := strings.TrimSpace(b.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

func collectText(n Node, b *strings.Builder) {
	if n.Type == "text" {
		b.WriteString(n.Text)
	}
	for _, c := range n.Content {
		collectText(c, b)
	}
}
