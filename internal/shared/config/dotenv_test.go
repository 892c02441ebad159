package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseEnvLine(t *testing.T) {
	tests := []struct {
		line   string
		key    string
		val    string
		wantOK bool
	}{
		{line: "PORT=9090", key: "PORT", val: "9090", wantOK: true},
		{line: "export ENV=dev", key: "ENV", val: "dev", wantOK: true},
		{line: `JWT_SECRET="a # b"`, key: "JWT_SECRET", val: "a # b", wantOK: true},
		{line: "LLM_MODEL='gemini-1.5-flash'", key: "LLM_MODEL", val: "gemini-1.5-flash", wantOK: true},
		{line: "LOG_LEVEL=debug # noisy", key: "LOG_LEVEL", val: "debug", wantOK: true},
		{line: "EMPTY=", key: "EMPTY", val: "", wantOK: true},
		{line: "# comment"},
		{line: "   "},
		{line: "NOEQUALS"},
		{line: "BAD KEY=x"},
	}
	for _, tt := range tests {
		key, val, ok := parseEnvLine(tt.line)
		if ok != tt.wantOK || key != tt.key || val != tt.val {
			t.Fatalf("parseEnvLine(%q) = %q, %q, %v", tt.line, key, val, ok)
		}
	}
}

func TestLoadEnvFilesKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, ".env")
	second := filepath.Join(dir, "cmd.env")
	if err := os.WriteFile(first, []byte("DOTENV_TEST_A=from-first\nDOTENV_TEST_B=from-first\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("DOTENV_TEST_A=from-second\nDOTENV_TEST_C=from-second\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DOTENV_TEST_B", "from-process")
	t.Setenv("DOTENV_TEST_A", "")
	os.Unsetenv("DOTENV_TEST_A")
	t.Setenv("DOTENV_TEST_C", "")
	os.Unsetenv("DOTENV_TEST_C")

	applied := loadEnvFiles(first, filepath.Join(dir, "missing.env"), second)

	if got := os.Getenv("DOTENV_TEST_A"); got != "from-first" {
		t.Fatalf("expected first file to win, got %q", got)
	}
	if got := os.Getenv("DOTENV_TEST_B"); got != "from-process" {
		t.Fatalf("expected process env to win, got %q", got)
	}
	if got := os.Getenv("DOTENV_TEST_C"); got != "from-second" {
		t.Fatalf("expected second file value, got %q", got)
	}
	if len(applied) != 2 {
		t.Fatalf("expected 2 applied keys, got %v", applied)
	}
}
