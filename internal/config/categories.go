package config

import (
	"fmt"
	"os"

	"cashbook/internal/core"

	"gopkg.in/yaml.v3"
)

// categoryFile is the layout of LEDGER_CATEGORIES_FILE:
//
//	categories:
//	  - food
//	  - rent
type categoryFile struct {
	Categories []string `yaml:"categories"`
}

// LoadCategories reads a YAML category file.
func LoadCategories(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read categories file: %w", err)
	}
	var f categoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse categories file %s: %w", path, err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("categories file %s lists no categories", path)
	}
	return f.Categories, nil
}

// CategorySet returns the categories from CategoriesFile, or the built-in
// defaults when no file is configured.
func (c *Config) CategorySet() (core.CategorySet, error) {
	if c.CategoriesFile == "" {
		return core.NewCategorySet(core.DefaultCategories), nil
	}
	names, err := LoadCategories(c.CategoriesFile)
	if err != nil {
		return nil, err
	}
	return core.NewCategorySet(names), nil
}
