package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/myrjola/lifelog/internal/contexthelpers"
)

type BaseTemplateData struct {
	CurrentPath string
	// Environment is the training environment used to filter exercise variants. Empty means any.
	Environment string
}

func newBaseTemplateData(r *http.Request) BaseTemplateData {
	return BaseTemplateData{
		CurrentPath: contexthelpers.CurrentPath(r.Context()),
		Environment: contexthelpers.Environment(r.Context()),
	}
}

// findModuleDir walks up from the working directory to the directory containing go.mod.
func findModuleDir() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	for {
		if _, err = os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found: %w", os.ErrNotExist)
		}
		dir = parent
	}
}

// resolveUIDir returns override when set and otherwise the ui/<name> directory of the module. The result must be
// an existing directory.
func resolveUIDir(override string, name string) (string, error) {
	dir := override
	if dir == "" {
		moduleDir, err := findModuleDir()
		if err != nil {
			return "", fmt.Errorf("find module dir: %w", err)
		}
		dir = filepath.Join(moduleDir, "ui", name)
	}
	stat, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("ui directory not found %s: %w", dir, err)
	}
	if !stat.IsDir() {
		return "", fmt.Errorf("ui path is not a directory: %s", dir)
	}
	return dir, nil
}

// resolveAndVerifyTemplatePath resolves the HTML template directory.
func resolveAndVerifyTemplatePath(templatePath string) (string, error) {
	return resolveUIDir(templatePath, "templates")
}
