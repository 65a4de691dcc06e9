package i18n

import "testing"

func TestMatch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"", "en"},
		{"en", "en"},
		{"ar", "ar"},
		{"ar-AE", "ar"},
		{"fr-FR,ar;q=0.8,en;q=0.5", "ar"},
		{"de", "en"},
		{"!!", "en"},
	}
	for _, tt := range tests {
		if got := Match(tt.in); got != tt.want {
			t.Errorf("Match(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTranslate(t *testing.T) {
	t.Parallel()
	if got := Translate("agents.title", "en"); got != "AI Agents" {
		t.Fatalf("en: %q", got)
	}
	if got := Translate("agents.title", "ar"); got == "AI Agents" || got == "agents.title" {
		t.Fatalf("ar: %q", got)
	}
	// rules.executions has no Arabic entry
	if got := Translate("rules.executions", "ar"); got != "Executions" {
		t.Fatalf("ar fallback to en: %q", got)
	}
	if got := Translate("no.such.key", "ar"); got != "no.such.key" {
		t.Fatalf("missing key: %q", got)
	}
}

func TestDictionary(t *testing.T) {
	t.Parallel()
	en := Dictionary("en")
	ar := Dictionary("ar")
	if len(ar) != len(en) {
		t.Fatalf("ar dictionary should be filled from en: %d vs %d", len(ar), len(en))
	}
	ar["agents.title"] = "mutated"
	if Dictionary("ar")["agents.title"] == "mutated" {
		t.Fatal("Dictionary must return a copy")
	}
}

func TestDir(t *testing.T) {
	t.Parallel()
	if Dir("ar") != "rtl" || Dir("en") != "ltr" {
		t.Fatal("unexpected text direction")
	}
}
