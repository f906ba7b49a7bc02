package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/visaguide/pkg/domain"
	"gopkg.in/yaml.v3"
)

// extensions are tried in order when resolving a visa type.
var extensions = []string{".yaml", ".yml", ".json"}

// ErrNotFound is returned when no knowledge file exists for a visa type.
var ErrNotFound = errors.New("knowledge file not found")

// Source implements ports.KnowledgeSource from files on the local filesystem.
// Each visa type lives in <BasePath>/<type>.yaml, .yml or .json.
type Source struct {
	BasePath string
}

// New creates a new Source. If basePath is empty, it defaults to ".visaguide/knowledge".
func New(basePath string) *Source {
	if basePath == "" {
		basePath = filepath.Join(".visaguide", "knowledge")
	}
	return &Source{BasePath: basePath}
}

// Knowledge loads and decodes the knowledge file for visaType.
func (s *Source) Knowledge(ctx context.Context, visaType string) (*domain.KnowledgeBase, error) {
	if visaType == "" || strings.ContainsAny(visaType, `/\`) {
		return nil, fmt.Errorf("invalid visa type %q", visaType)
	}

	for _, ext := range extensions {
		path := filepath.Join(s.BasePath, visaType+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read knowledge file: %w", err)
		}
		kb, err := decode(ext, data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return kb, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, visaType, s.BasePath)
}

// List returns the visa types that have a knowledge file, sorted.
func (s *Source) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read knowledge directory: %w", err)
	}

	seen := make(map[string]bool)
	var types []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		for _, known := range extensions {
			if ext == known {
				t := strings.TrimSuffix(name, ext)
				if !seen[t] {
					seen[t] = true
					types = append(types, t)
				}
			}
		}
	}
	sort.Strings(types)
	return types, nil
}

func decode(ext string, data []byte) (*domain.KnowledgeBase, error) {
	var kb domain.KnowledgeBase
	var err error
	if ext == ".json" {
		err = json.Unmarshal(data, &kb)
	} else {
		err = yaml.Unmarshal(data, &kb)
	}
	if err != nil {
		return nil, err
	}
	return &kb, nil
}
