package document

import (
	"strings"
	"testing"
)

func validDoc() Document {
	return Document{
		ID:        "res-1",
		Text:      "Senior Go engineer with ten years of distributed systems work.",
		Status:    StatusCompleted,
		Embedding: []float32{0.1, 0.2},
	}
}

func TestValidate_Valid(t *testing.T) {
	d := validDoc()
	if err := d.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.Searchable() {
		t.Error("completed document with embedding should be searchable")
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
		want   string
	}{
		{"empty id", func(d *Document) { d.ID = "" }, "ID is required"},
		{"bad id", func(d *Document) { d.ID = "a b" }, "alphanumeric"},
		{"long id", func(d *Document) { d.ID = strings.Repeat("a", 257) }, "too long"},
		{"empty text", func(d *Document) { d.Text = "  " }, "text is required"},
		{"huge text", func(d *Document) { d.Text = strings.Repeat("x", MaxContentSize+1) }, "too large"},
		{"completed without embedding", func(d *Document) { d.Embedding = nil }, "no embedding"},
		{"failed with embedding", func(d *Document) { d.Status = StatusFailed }, "must not carry"},
		{"unknown status", func(d *Document) { d.Status = "archived" }, "unknown status"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := validDoc()
			tc.mutate(&d)
			err := d.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestSearchable_ProcessingExcluded(t *testing.T) {
	d := validDoc()
	d.Status = StatusProcessing
	if d.Searchable() {
		t.Error("processing document must not be searchable")
	}
}

func TestSkillNames_SkipsEmpty(t *testing.T) {
	s := Structured{Skills: []Skill{{Name: "Go"}, {Name: ""}, {Name: "Redis"}}}
	names := s.SkillNames()
	if len(names) != 2 || names[0] != "Go" || names[1] != "Redis" {
		t.Errorf("SkillNames() = %v", names)
	}
}

func TestPersonalInfo_IsZero(t *testing.T) {
	if !(PersonalInfo{}).IsZero() {
		t.Error("empty info should be zero")
	}
	if (PersonalInfo{Name: "Ann"}).IsZero() {
		t.Error("info with a name should not be zero")
	}
}
