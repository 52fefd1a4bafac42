package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

//InSlice returns true if given string appears in given slice
func InSlice(lookingFor string, slice []string) bool {
	for _, s := range slice {
		if s == lookingFor {
			return true
		}
	}

	return false
}

//ListDir returns a list of files/ directories in given path
func ListDir(path string) ([]string, error) {
	names := make([]string, 0)
	if files, err := os.ReadDir(path); err != nil {
		return nil, fmt.Errorf("ListDir: Error, got '%v'", err)
	} else {
		for _, f := range files {
			names = append(names, f.Name())
		}
	}

	return names, nil
}

//EnsureDir creates given directory (and parents) in case it does not exist
func EnsureDir(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(path, 0766); err != nil {
				return fmt.Errorf("EnsureDir: Error creating '%s', got '%v'", path, err)
			}
			return nil
		}
		return err
	}

	return nil
}

//BaseName returns file name without directory and extension ("videos/game.mp4" => "game")
func BaseName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

//ArtifactTag returns the artifact tag of frame number 'index' in a stream of 'total' frames, or "" when
//nothing should be written for it. The first frame is tagged FirstTag, the one before last LastTag.
func ArtifactTag(index, total int) string {
	if index == 0 {
		return FirstTag
	}
	if total >= 2 && index == total-2 {
		return LastTag
	}
	return ""
}
