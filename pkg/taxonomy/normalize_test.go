package taxonomy

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"Segurança", "seguranca"},
		{"PROCEDIMENTO", "procedimento"},
		{"Élodie", "elodie"},
		{"naïve", "naive"},
		{"Ñoño", "nono"},
		{"Falha de comunicação", "falha de comunicacao"},
		{"", ""},
		{"simple", "simple"},
	}
	for _, tt := range tests {
		got := Normalize(tt.input)
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	for _, input := range []string{"Acidente grave às 14h", "FADIGA", "trabalho em altura"} {
		once := Normalize(input)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize not idempotent for %q: %q then %q", input, once, twice)
		}
	}
}

func TestNormalizeLowercaseASCII(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"DUPONT", "dupont"},
		{"Élodie", "elodie"},
		{"café", "cafe"},
		{"FRANÇOIS", "francois"},
		{"", ""},
	}
	for _, tt := range tests {
		got := NormalizeLowercaseASCII(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeLowercaseASCII(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestGetNormalizer(t *testing.T) {
	tests := []struct {
		mode  string
		input string
		want  string
	}{
		{"transliterate", "Segurança", "seguranca"},
		{"lowercase_ascii", "Élodie", "elodie"},
		{"lowercase_utf8", "Élodie", "élodie"},
		{"none", "Élodie", "Élodie"},
		{"", "Élodie", "elodie"},             // default = transliterate
		{"unknown_mode", "Élodie", "elodie"}, // fallback = transliterate
	}
	for _, tt := range tests {
		fn := GetNormalizer(tt.mode)
		got := fn(tt.input)
		if got != tt.want {
			t.Errorf("GetNormalizer(%q)(%q) = %q, want %q", tt.mode, tt.input, got, tt.want)
		}
	}
}
