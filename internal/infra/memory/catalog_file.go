package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"knotquiz/internal/domain"

	"gopkg.in/yaml.v3"
)

type catalogFile struct {
	Quizzes []domain.Quiz `json:"quizzes"`
}

// LoadCatalogFile reads quizzes from a JSON or YAML file. The file holds
// either a list of quizzes or an object with a "quizzes" list.
func LoadCatalogFile(path string) (map[string]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseCatalog(data, filepath.Ext(path))
}

// ParseCatalog decodes catalog data. YAML is converted to JSON first so
// questions resolve their kind the same way for both formats.
func ParseCatalog(data []byte, ext string) (map[string]domain.Quiz, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse catalog yaml: %w", err)
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("convert catalog yaml: %w", err)
		}
		data = converted
	}

	var quizzes []domain.Quiz
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(data, &quizzes); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
	} else {
		var file catalogFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog: %w", err)
		}
		quizzes = file.Quizzes
	}

	out := make(map[string]domain.Quiz, len(quizzes))
	for _, quiz := range quizzes {
		if quiz.ID == "" {
			return nil, fmt.Errorf("catalog quiz %q has no id", quiz.Name)
		}
		if _, dup := out[quiz.ID]; dup {
			return nil, fmt.Errorf("catalog quiz %q declared twice", quiz.ID)
		}
		out[quiz.ID] = quiz
	}
	return out, nil
}
