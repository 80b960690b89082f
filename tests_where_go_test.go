package main

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// packagesWithoutTests walks root and returns every directory holding Go code but no
// _test.go file. Hidden directories, "_" prefixed ones (reference material the Go tool
// ignores too) and testdata are not walked.
func packagesWithoutTests(root string) ([]string, error) {
	type files struct{ code, tests int }
	dirs := map[string]*files{}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		dir := filepath.Dir(path)
		if dirs[dir] == nil {
			dirs[dir] = &files{}
		}
		if strings.HasSuffix(path, "_test.go") {
			dirs[dir].tests++
		} else {
			dirs[dir].code++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var untested []string
	for dir, f := range dirs {
		if f.code > 0 && f.tests == 0 {
			untested = append(untested, dir)
		}
	}
	sort.Strings(untested)
	return untested, nil
}
