package richtext

import (
	"reflect"
	"testing"
)

func TestRoundTripEmptyDoc(t *testing.T) {
	d := Empty()

	s, err := d.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Errorf("round trip = %#v, want %#v", got, d)
	}
}

func TestRoundTripParagraph(t *testing.T) {
	d := &Doc{
		Type: "doc",
		Content: []Node{
			{Type: "paragraph", Content: []Node{
				{Type: "text", Text: "Lunch at the harbor"},
			}},
		},
	}

	s, err := d.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Errorf("round trip = %#v, want %#v", got, d)
	}
}

func TestRoundTripBulletList(t *testing.T) {
	item := func(text string) Node {
		return Node{Type: "listItem", Content: []Node{
			{Type: "paragraph", Content: []Node{{Type: "text", Text: text}}},
		}}
	}
	d := &Doc{
		Type: "doc",
		Content: []Node{
			{Type: "paragraph", Content: []Node{
				{Type: "text", Text: "Bring:", Marks: []Mark{{Type: "bold"}}},
			}},
			{Type: "bulletList", Content: []Node{
				item("tickets"),
				item("camera"),
				item("snacks"),
			}},
		},
	}

	s, err := d.Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}

	got, err := Parse(s)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got, d) {
		t.Errorf("round trip = %#v, want %#v", got, d)
	}
}

func TestParseRejectsNonDocRoot(t *testing.T) {
	if _, err := Parse(`{"type":"paragraph","content":[]}`); err == nil {
		t.Error("expected error for non-doc root")
	}
	if _, err := Parse(`not json`); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestNilDistinctFromEmpty(t *testing.T) {
	var nilDoc *Doc
	if !nilDoc.IsEmpty() {
		t.Error("nil doc should be empty")
	}
	if !Empty().IsEmpty() {
		t.Error("empty doc should render as empty")
	}

	s, err := Empty().Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if s != `{"type":"doc","content":[]}` {
		t.Errorf("empty doc serialization = %q", s)
	}
}

func TestPlainText(t *testing.T) {
	d := &Doc{
		Type: "doc",
		Content: []Node{
			{Type: "paragraph", Content: []Node{{Type: "text", Text: "Morning hike"}}},
			{Type: "bulletList", Content: []Node{
				{Type: "listItem", Content: []Node{
					{Type: "paragraph", Content: []Node{{Type: "text", Text: "water"}}},
				}},
			}},
		},
	}
	want := "Morning hike\nwater"
	if got := d.PlainText(); got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}
}
