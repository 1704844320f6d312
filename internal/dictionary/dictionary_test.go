package dictionary

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadCorrections_JSONKeepsFileOrder(t *testing.T) {
	path := writeFile(t, "corr.json", `{"zz": "a", "aa": "b", "mm": "c"}`)
	dict, loaded, err := LoadCorrections(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loaded {
		t.Fatal("expected dictionary to be loaded")
	}
	want := []string{"zz", "aa", "mm"}
	if len(dict) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(dict))
	}
	for i, w := range want {
		if dict[i].Wrong != w {
			t.Errorf("entry %d: expected %q, got %q", i, w, dict[i].Wrong)
		}
	}
}

func TestLoadCorrections_YAML(t *testing.T) {
	path := writeFile(t, "corr.yaml", "rn: m\n\"q,ue\": que\n")
	dict, loaded, err := LoadCorrections(path)
	if err != nil || !loaded {
		t.Fatalf("expected loaded dictionary, got loaded=%v err=%v", loaded, err)
	}
	if dict[1].Wrong != "q,ue" || dict[1].Right != "que" {
		t.Errorf("unexpected second entry %+v", dict[1])
	}
}

func TestLoadCorrections_Missing(t *testing.T) {
	dict, loaded, err := LoadCorrections(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("expected no error for a missing file, got %v", err)
	}
	if loaded || dict != nil {
		t.Errorf("expected nothing loaded, got loaded=%v dict=%v", loaded, dict)
	}
}

func TestLoadCorrections_EmptyPath(t *testing.T) {
	_, loaded, err := LoadCorrections("")
	if err != nil || loaded {
		t.Errorf("expected loaded=false err=nil, got loaded=%v err=%v", loaded, err)
	}
}

func TestLoadCorrections_NotAMapping(t *testing.T) {
	path := writeFile(t, "corr.json", `["a", "b"]`)
	if _, _, err := LoadCorrections(path); err == nil {
		t.Error("expected an error for a list")
	}
}

func TestLoadWordSet_Text(t *testing.T) {
	path := writeFile(t, "words.txt", "# comment\nCasa\n\n  perro  \n")
	set, loaded, err := LoadWordSet(path)
	if err != nil || !loaded {
		t.Fatalf("expected loaded set, got loaded=%v err=%v", loaded, err)
	}
	if len(set) != 2 || !set.Has("casa") || !set.Has("perro") {
		t.Errorf("unexpected set %v", set)
	}
}

func TestLoadWordSet_JSON(t *testing.T) {
	path := writeFile(t, "words.json", `["Uno", "dos"]`)
	set, loaded, err := LoadWordSet(path)
	if err != nil || !loaded {
		t.Fatalf("expected loaded set, got loaded=%v err=%v", loaded, err)
	}
	if !set.Has("uno") || !set.Has("dos") {
		t.Errorf("unexpected set %v", set)
	}
}

func TestLoadWordSet_EmptyFileNotLoaded(t *testing.T) {
	path := writeFile(t, "words.txt", "\n# only comments\n")
	_, loaded, err := LoadWordSet(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded {
		t.Error("expected an empty list to report loaded=false")
	}
}
