package template

import (
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestGet_Precedence(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Add("engineer", "EB2", "background", "exact")

	// Exact triple beats every fallback.
	if got := r.Get("engineer", "EB2", "background"); got != "exact" {
		t.Fatalf("exact: %q", got)
	}

	// Profession wildcard beats visa wildcard when both apply.
	r.Add(Wildcard, "EB2", "background", "visa-level")
	if got := r.Get("medical", "EB2", "background"); !strings.Contains(got, "Clinical training") {
		t.Fatalf("expected the medical profession template, got %q", got)
	}

	// Visa wildcard is the last resort before empty.
	if got := r.Get("lawyer", "EB2", "background"); got != "visa-level" {
		t.Fatalf("visa fallback: %q", got)
	}
}

func TestGet_NoMatchIsEmpty(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	if got := r.Get("lawyer", "O1", "background"); got != "" {
		t.Fatalf("expected empty template, got %q", got)
	}
}

func TestAdd_Replaces(t *testing.T) {
	r := NewRegistry(zap.NewNop())
	r.Add("engineer", Wildcard, "background", "v2")
	if got := r.Get("engineer", "O1", "background"); got != "v2" {
		t.Fatalf("got %q", got)
	}
}

func TestSections(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	got := r.Sections("engineer", "EB2")
	want := []string{"background", "conclusion", "experience", "expert_opinion", "introduction", "national_interest"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// No applicable templates at all for an unknown pairing.
	if got := r.Sections("lawyer", "O1"); len(got) != 0 {
		t.Fatalf("expected none, got %v", got)
	}
}

func TestDefaults_Seeded(t *testing.T) {
	r := NewRegistry(zap.NewNop())

	cases := []struct {
		profession, visa, section, marker string
	}{
		{"engineer", "O1", "experience", "{{work_history}}"},
		{"medical", "O1", "background", "Clinical training"},
		{"lawyer", "EB1", "achievements", "top of the field"},
		{"lawyer", "EB2", "conclusion", "National Interest Waiver"},
	}
	for _, c := range cases {
		if got := r.Get(c.profession, c.visa, c.section); !strings.Contains(got, c.marker) {
			t.Fatalf("(%s,%s,%s): %q missing %q", c.profession, c.visa, c.section, got, c.marker)
		}
	}
}
