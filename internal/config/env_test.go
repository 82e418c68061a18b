package config

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestEnv(t *testing.T) {
	t.Setenv("NAVEYE_TEST_STR", "  value ")
	if got := Env("NAVEYE_TEST_STR", "def"); got != "value" {
		t.Errorf("Env = %q, want value", got)
	}
	t.Setenv("NAVEYE_TEST_STR", "   ")
	if got := Env("NAVEYE_TEST_STR", "def"); got != "def" {
		t.Errorf("blank Env = %q, want def", got)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("NAVEYE_TEST_INT", "8181")
	if got := EnvInt("NAVEYE_TEST_INT", 1); got != 8181 {
		t.Errorf("EnvInt = %d, want 8181", got)
	}
	t.Setenv("NAVEYE_TEST_INT", "abc")
	if got := EnvInt("NAVEYE_TEST_INT", 7); got != 7 {
		t.Errorf("invalid EnvInt = %d, want 7", got)
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		val  string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"on", false, true},
		{"false", true, false},
		{"off", true, false},
		{"", true, true},
		{"maybe", false, false},
	}
	for _, tc := range tests {
		t.Setenv("NAVEYE_TEST_BOOL", tc.val)
		if got := EnvBool("NAVEYE_TEST_BOOL", tc.def); got != tc.want {
			t.Errorf("EnvBool(%q, %v) = %v, want %v", tc.val, tc.def, got, tc.want)
		}
	}
}

func TestPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	p := Path("inquiries.json")
	if !strings.HasSuffix(p, filepath.Join(DirName, "inquiries.json")) {
		t.Errorf("Path = %q", p)
	}
}
