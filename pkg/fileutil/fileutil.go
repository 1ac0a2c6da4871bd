package fileutil

import (
	"os"
	"path"
	"path/filepath"
	"runtime"
)

func FileExists(name string) bool {
	_, err := os.Stat(name)
	return err == nil
}

func ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// WriteFile writes content to name, creating parent directories as needed.
func WriteFile(content []byte, name string) error {
	if dir := filepath.Dir(name); dir != "" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return err
		}
	}
	return os.WriteFile(name, content, 0o644)
}

// FindResourcePth resolves a resource relative to the executable, the working
// directory and finally the source tree, returning the first path that exists.
// When none exists the working-directory candidate is returned.
func FindResourcePth(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	candidates := make([]string, 0, 3)
	if appPath, err := filepath.Abs(filepath.Dir(os.Args[0])); err == nil {
		candidates = append(candidates, filepath.Join(appPath, name))
	}
	workPath, err := os.Getwd()
	if err == nil {
		candidates = append(candidates, filepath.Join(workPath, name))
	}
	_, filename, _, ok := runtime.Caller(0)
	if ok {
		// pkg/fileutil -> module root
		candidates = append(candidates, filepath.Join(path.Dir(filename), "..", "..", name))
	}
	for _, c := range candidates {
		if FileExists(c) {
			return c
		}
	}
	return filepath.Join(workPath, name)
}
