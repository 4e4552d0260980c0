package i18n

import "testing"

func clearLocaleEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LANGUAGE", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "")
}

func TestDetectLanguagePriorityAndNormalization(t *testing.T) {
	t.Run("LANGUAGE has highest priority", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "ru_RU.UTF-8:en_US")
		t.Setenv("LC_ALL", "de_DE.UTF-8")

		if got := detectLanguage(); got != "ru_RU" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "ru_RU")
		}
	})

	t.Run("C and POSIX are skipped", func(t *testing.T) {
		clearLocaleEnv(t)
		t.Setenv("LANGUAGE", "C")
		t.Setenv("LC_ALL", "POSIX")
		t.Setenv("LC_MESSAGES", "fr_FR.UTF-8")

		if got := detectLanguage(); got != "fr_FR" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "fr_FR")
		}
	})

	t.Run("falls back to en", func(t *testing.T) {
		clearLocaleEnv(t)
		if got := detectLanguage(); got != "en" {
			t.Fatalf("detectLanguage() = %q, want %q", got, "en")
		}
	})
}

func TestInitLoadsEmbeddedLocales(t *testing.T) {
	old := po
	t.Cleanup(func() { po = old })

	Init("ru")
	if got := T("Project"); got != "Проект" {
		t.Fatalf("T(Project) = %q, want %q", got, "Проект")
	}

	tests := []struct {
		n    int
		want string
	}{
		{1, "Извлечена %d единица из %s"},
		{3, "Извлечено %d единицы из %s"},
		{7, "Извлечено %d единиц из %s"},
	}
	for _, tt := range tests {
		got := N("Extracted %d unit from %s", "Extracted %d units from %s", tt.n)
		if got != tt.want {
			t.Fatalf("N(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}

	Init("de")
	if got := T("Workbooks"); got != "Arbeitsmappen" {
		t.Fatalf("T(Workbooks) = %q, want %q", got, "Arbeitsmappen")
	}

	// A locale without a catalog falls through to the msgid.
	Init("fr")
	if got := T("Project"); got != "Project" {
		t.Fatalf("T without catalog = %q, want passthrough", got)
	}
}

func TestTAndNFallbackWhenUninitialized(t *testing.T) {
	old := po
	po = nil
	t.Cleanup(func() { po = old })

	if got := T("Hello"); got != "Hello" {
		t.Fatalf("T fallback = %q, want %q", got, "Hello")
	}

	if got := N("file", "files", 1); got != "file" {
		t.Fatalf("N singular fallback = %q, want %q", got, "file")
	}

	if got := N("file", "files", 2); got != "files" {
		t.Fatalf("N plural fallback = %q, want %q", got, "files")
	}
}
