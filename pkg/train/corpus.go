package train

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Corpus is one parallel corpus: a pair of aligned plain-text files sharing a
// base name, one per language.
type Corpus struct {
	Name       string
	SourceFile string
	TargetFile string
	Lines      int
}

// ScanCorpora discovers parallel corpora in dir for the given language pair.
// A corpus named "europarl" for en-it consists of europarl.en and
// europarl.it; both sides must have the same number of lines.
func ScanCorpora(dir, source, target string) ([]Corpus, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot read corpus directory %s: %w", dir, err)
	}

	var corpora []Corpus
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "."+source) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), "."+source)
		sourceFile := filepath.Join(dir, entry.Name())
		targetFile := filepath.Join(dir, name+"."+target)
		if _, err := os.Stat(targetFile); err != nil {
			continue
		}

		sourceLines, err := countLines(sourceFile)
		if err != nil {
			return nil, err
		}
		targetLines, err := countLines(targetFile)
		if err != nil {
			return nil, err
		}
		if sourceLines != targetLines {
			return nil, fmt.Errorf("corpus '%s' is not aligned: %d %s lines vs %d %s lines",
				name, sourceLines, source, targetLines, target)
		}

		corpora = append(corpora, Corpus{
			Name:       name,
			SourceFile: sourceFile,
			TargetFile: targetFile,
			Lines:      sourceLines,
		})
	}

	if len(corpora) == 0 {
		return nil, fmt.Errorf("no parallel corpora for %s-%s found in %s", source, target, dir)
	}

	return corpora, nil
}

func countLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	lines := 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lines++
	}
	return lines, scanner.Err()
}
