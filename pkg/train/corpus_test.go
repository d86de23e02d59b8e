package train

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCorpus(t *testing.T, dir, name, lang string, lines []string) {
	t.Helper()
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, name+"."+lang), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanCorpora(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, "europarl", "en", []string{"hello world", "good morning"})
	writeCorpus(t, dir, "europarl", "it", []string{"ciao mondo", "buongiorno"})
	writeCorpus(t, dir, "books", "en", []string{"one sentence"})
	writeCorpus(t, dir, "books", "it", []string{"una frase"})
	// a stray source file without its target side is skipped
	writeCorpus(t, dir, "orphan", "en", []string{"nothing"})

	corpora, err := ScanCorpora(dir, "en", "it")
	if err != nil {
		t.Fatal(err)
	}

	if len(corpora) != 2 {
		t.Fatalf("expected 2 corpora, got %d", len(corpora))
	}

	byName := map[string]Corpus{}
	for _, corpus := range corpora {
		byName[corpus.Name] = corpus
	}
	if byName["europarl"].Lines != 2 {
		t.Errorf("europarl should have 2 lines, got %d", byName["europarl"].Lines)
	}
	if byName["books"].Lines != 1 {
		t.Errorf("books should have 1 line, got %d", byName["books"].Lines)
	}
}

func TestScanCorpora_Misaligned(t *testing.T) {
	dir := t.TempDir()
	writeCorpus(t, dir, "europarl", "en", []string{"one", "two"})
	writeCorpus(t, dir, "europarl", "it", []string{"uno"})

	_, err := ScanCorpora(dir, "en", "it")
	if err == nil || !strings.Contains(err.Error(), "not aligned") {
		t.Errorf("expected an alignment error, got %v", err)
	}
}

func TestScanCorpora_Empty(t *testing.T) {
	_, err := ScanCorpora(t.TempDir(), "en", "it")
	if err == nil {
		t.Error("expected an error for a directory without corpora")
	}
}
