package taxonomy

import (
	"errors"
	"reflect"
	"testing"
)

func TestBuildTermBag(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"Queda; queda ;Falta de EPI;", []string{"queda", "queda", "falta de epi"}},
		{"", nil},
		{" ; ;; ", nil},
		{"Fadiga", []string{"fadiga"}},
		{"Comunicação falha;  PRESSÃO de tempo ", []string{"comunicacao falha", "pressao de tempo"}},
	}
	for _, tt := range tests {
		got := BuildTermBag(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("BuildTermBag(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestBuildTermBag_ModeNoneStillLowercases(t *testing.T) {
	got := buildTermBag("Pressão; FADIGA", NormalizeNone)
	want := []string{"pressão", "fadiga"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("buildTermBag(none) = %q, want %q", got, want)
	}
}

func TestNewTable(t *testing.T) {
	entries := []Entry{{
		Dimension: "Fadiga",
		Factor:    "Horas extras",
		Terms:     map[Language][]string{Portuguese: {"fadiga", "hora extra"}},
	}}
	tbl, err := NewTable("memory", entries, Portuguese)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if tbl.Len() != 1 {
		t.Errorf("Len = %d, want 1", tbl.Len())
	}
	if !tbl.HasLanguage(Portuguese) || tbl.HasLanguage(English) {
		t.Errorf("languages = %v, want [pt]", tbl.AvailableLanguages())
	}
	if n := tbl.TermCount(Portuguese); n != 2 {
		t.Errorf("TermCount(pt) = %d, want 2", n)
	}
	if bag := tbl.Entries[0].TermBag(English); bag != nil {
		t.Errorf("TermBag(en) = %q, want nil", bag)
	}
}

func TestNewTable_Invalid(t *testing.T) {
	valid := []Entry{{Dimension: "D", Factor: "F"}}
	tests := []struct {
		name    string
		entries []Entry
		langs   []Language
	}{
		{"no entries", nil, []Language{Portuguese}},
		{"no languages", valid, nil},
		{"missing factor", []Entry{{Dimension: "D"}}, []Language{English}},
	}
	for _, tt := range tests {
		_, err := NewTable("memory", tt.entries, tt.langs...)
		if !errors.Is(err, ErrInvalidTaxonomy) {
			t.Errorf("%s: err = %v, want ErrInvalidTaxonomy", tt.name, err)
		}
	}
}
