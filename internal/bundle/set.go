package bundle

import (
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Set maps a language code to a root tree whose children are namespaces.
type Set map[string]*Node

// Put stores tree as namespace under language, creating the language root
// when needed.
func (s Set) Put(language, namespace string, tree *Node) {
	root, ok := s[language]
	if !ok || !root.IsTree() {
		root = Tree()
		s[language] = root
	}
	root.Set(namespace, tree)
}

// Languages returns the languages present in the set, sorted.
func (s Set) Languages() []string {
	out := make([]string, 0, len(s))
	for language := range s {
		out = append(out, language)
	}
	slices.Sort(out)
	return out
}

// LoadSet reads every {namespace}/{language}.{ext} document under fsys.
// Namespaces are added in directory order. When a language has the same
// namespace in more than one format the first extension in Extensions wins.
func LoadSet(fsys fs.FS) (Set, error) {
	namespaces, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("bundle: read bundle root: %w", err)
	}

	set := Set{}
	for _, entry := range namespaces {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		namespace := entry.Name()
		files, err := fs.ReadDir(fsys, namespace)
		if err != nil {
			return nil, fmt.Errorf("bundle: read namespace %q: %w", namespace, err)
		}

		chosen := map[string]string{}
		var languages []string
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			language, ext, ok := SplitFileName(file.Name())
			if !ok {
				continue
			}
			current, seen := chosen[language]
			if !seen {
				languages = append(languages, language)
			}
			if !seen || extRank(ext) < extRank(path.Ext(current)) {
				chosen[language] = file.Name()
			}
		}

		for _, language := range languages {
			name := path.Join(namespace, chosen[language])
			tree, err := ReadFile(fsys, name)
			if err != nil {
				return nil, err
			}
			set.Put(language, namespace, tree)
		}
	}
	return set, nil
}

// ReadFile decodes a single bundle document from fsys, picking the format
// from the extension.
func ReadFile(fsys fs.FS, name string) (*Node, error) {
	format, err := FormatFromPath(name)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	tree, err := Decode(format, data)
	if err != nil {
		return nil, fmt.Errorf("bundle: %s: %w", name, err)
	}
	return tree, nil
}

// SplitFileName splits "fr.json" into ("fr", ".json"). Unknown extensions
// report false.
func SplitFileName(name string) (language, ext string, ok bool) {
	ext = strings.ToLower(path.Ext(name))
	if extRank(ext) < 0 {
		return "", "", false
	}
	language = strings.TrimSuffix(name, path.Ext(name))
	if language == "" {
		return "", "", false
	}
	return language, ext, true
}

func extRank(ext string) int {
	return slices.Index(Extensions, strings.ToLower(ext))
}
