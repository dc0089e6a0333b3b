package hcl

import (
	"fmt"
	"os"
	"path/filepath"
)

// fileExtension is the suffix of model files picked up from directories.
const fileExtension = ".hcl"

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found. Explicitly named files are accepted whatever their extension.
// Directories are walked in lexical order and every file is returned once.
func findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(filepath.Clean(path))
			continue
		}

		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(p) == fileExtension {
				add(filepath.Clean(p))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	if len(allFiles) == 0 {
		return nil, fmt.Errorf("no %s files found in %v", fileExtension, paths)
	}
	return allFiles, nil
}
