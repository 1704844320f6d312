// Package dictionary loads correction dictionaries and word lists from disk.
//
// Every loader reports loaded=false with a nil error when the file does not
// exist: a missing dictionary disables the feature that needs it and is
// never fatal.
package dictionary

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/scanbook/internal/abnormal"
	"github.com/dgallion1/scanbook/internal/correction"
)

// LoadCorrections reads a wrong → right mapping. The file is a JSON object
// or a YAML mapping; entries keep the order they have in the file.
func LoadCorrections(path string) (correction.Dictionary, bool, error) {
	data, ok, err := readOptional(path)
	if !ok || err != nil {
		return nil, false, err
	}
	dict, err := ParseCorrections(data)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", path, err)
	}
	return dict, len(dict) > 0, nil
}

// ParseCorrections decodes a JSON object or YAML mapping of string pairs.
func ParseCorrections(data []byte) (correction.Dictionary, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse corrections: %w", err)
	}
	if root.Kind == 0 {
		return nil, nil
	}
	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse corrections: expected a mapping at line %d", node.Line)
	}

	var dict correction.Dictionary
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("parse corrections: entry at line %d is not a string pair", k.Line)
		}
		dict.Set(k.Value, v.Value)
	}
	return dict, nil
}

// LoadWordSet reads a word list. ".json", ".yaml" and ".yml" files hold a
// list of strings; anything else is plain text with one word per line and
// "#" comments.
func LoadWordSet(path string) (abnormal.WordSet, bool, error) {
	data, ok, err := readOptional(path)
	if !ok || err != nil {
		return nil, false, err
	}

	set := abnormal.WordSet{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		var words []string
		if err := yaml.Unmarshal(data, &words); err != nil {
			return nil, false, fmt.Errorf("%s: parse word list: %w", path, err)
		}
		for _, w := range words {
			set.Add(w)
		}
	default:
		scanner := bufio.NewScanner(bytes.NewReader(data))
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			set.Add(line)
		}
		if err := scanner.Err(); err != nil {
			return nil, false, fmt.Errorf("%s: %w", path, err)
		}
	}
	return set, len(set) > 0, nil
}

func readOptional(path string) ([]byte, bool, error) {
	if path == "" {
		return nil, false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	return data, true, nil
}
