// Package browse lists the entries of a directory that `vconv browse` shows:
// a parent link, subdirectories, and files with a convertible extension.
package browse

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vconv/internal/media"
)

// Kind distinguishes listing rows.
type Kind int

const (
	KindParent Kind = iota
	KindDir
	KindFile
)

// Entry is one row of a directory listing.
type Entry struct {
	Name   string
	Path   string
	Kind   Kind
	Size   int64
	Format media.ContainerFormat
}

// List returns the parent entry (unless dir is the filesystem root),
// subdirectories, then convertible files, each group sorted by name.
// Hidden entries and unreadable subentries are skipped.
func List(dir string) ([]Entry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}
	items, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", abs, err)
	}

	var dirs, files []Entry
	for _, item := range items {
		name := item.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(abs, name)
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		switch {
		case info.IsDir():
			dirs = append(dirs, Entry{Name: name, Path: path, Kind: KindDir})
		case info.Mode().IsRegular() && media.IsConvertible(name):
			files = append(files, Entry{
				Name:   name,
				Path:   path,
				Kind:   KindFile,
				Size:   info.Size(),
				Format: media.FormatFromExtension(filepath.Ext(name)),
			})
		}
	}
	byName := func(list []Entry) {
		sort.Slice(list, func(i, j int) bool {
			return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
		})
	}
	byName(dirs)
	byName(files)

	out := make([]Entry, 0, len(dirs)+len(files)+1)
	if parent := filepath.Dir(abs); parent != abs {
		out = append(out, Entry{Name: "..", Path: parent, Kind: KindParent})
	}
	out = append(out, dirs...)
	return append(out, files...), nil
}
