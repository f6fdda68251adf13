package library

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

var (
	episodePattern = regexp.MustCompile(`S(\d+)E(\d+)`)
	titlePattern   = regexp.MustCompile(`S\d+E\d+\s*-\s*(.+)`)
)

// FolderInfo is the season/episode token parsed from a leaf directory name.
type FolderInfo struct {
	Season  int
	Episode int
	Title   string
}

// ParseFolder extracts the S<season>E<episode> token from a directory name.
// Names without the token are not episode folders and report ok=false.
func ParseFolder(name string) (FolderInfo, bool) {
	match := episodePattern.FindStringSubmatch(name)
	if match == nil {
		return FolderInfo{}, false
	}
	season, err := strconv.Atoi(match[1])
	if err != nil {
		return FolderInfo{}, false
	}
	episode, err := strconv.Atoi(match[2])
	if err != nil {
		return FolderInfo{}, false
	}
	title := name
	if m := titlePattern.FindStringSubmatch(name); m != nil {
		title = m[1]
	}
	return FolderInfo{Season: season, Episode: episode, Title: title}, true
}

// RenumberFolder rewrites the episode component of a folder name, keeping
// the season and trailing title untouched. Episode numbers are written with
// three-digit zero padding, the convention used by the downloader.
func RenumberFolder(name string, episode int) string {
	return episodePattern.ReplaceAllStringFunc(name, func(token string) string {
		match := episodePattern.FindStringSubmatch(token)
		return fmt.Sprintf("S%sE%03d", match[1], episode)
	})
}

// LeafDirs returns every directory under root that has no subdirectories,
// sorted for deterministic processing. Only leaves can be episode folders;
// intermediate activity and instructor folders always contain directories.
func LeafDirs(root string) ([]string, error) {
	var dirs []string
	hasChild := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root {
			hasChild[filepath.Dir(path)] = true
			dirs = append(dirs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	leaves := dirs[:0]
	for _, dir := range dirs {
		if !hasChild[dir] {
			leaves = append(leaves, dir)
		}
	}
	sort.Strings(leaves)
	return leaves, nil
}
