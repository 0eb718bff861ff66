package stringutil

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Histórico", "historico"},
		{"AÇÃO", "acao"},
		{"faria_limers", "faria_limers"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToASCII(t *testing.T) {
	tests := []struct {
		name  string
		input string
		repl  rune
		want  string
	}{
		{"Accents", "João Conceição", '?', "Joao Conceicao"},
		{"Emoji replaced", "Bia 🍺", '?', "Bia ?"},
		{"Emoji dropped", "Bia 🍺", 0, "Bia "},
		{"Newline dropped", "a\nb", 0, "ab"},
		{"Plain", "Ana", '?', "Ana"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToASCII(tt.input, tt.repl); got != tt.want {
				t.Errorf("ToASCII(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
