// Package platform resolves the directories the bot keeps its files in.
package platform

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

var ErrNoDirectory = errors.New("no usable directory")

// Candidate proposes a directory, reporting false when it has nothing to
// offer.
type Candidate func() (string, bool)

func Value(dir string) Candidate {
	return func() (string, bool) { return dir, dir != "" }
}

// Env uses an environment variable, such as the ones systemd sets for
// RuntimeDirectory= and friends.
func Env(name string) Candidate {
	return func() (string, bool) {
		dir, ok := os.LookupEnv(name)
		return dir, ok && dir != ""
	}
}

func UserCache(sub string) Candidate {
	return func() (string, bool) {
		dir, err := os.UserCacheDir()
		if err != nil {
			return "", false
		}
		return filepath.Join(dir, sub), true
	}
}

func WorkDir(sub string) Candidate {
	return func() (string, bool) {
		dir, err := os.Getwd()
		if err != nil {
			return "", false
		}
		return filepath.Join(dir, sub), true
	}
}

func Temp(sub string) Candidate {
	return func() (string, bool) {
		return filepath.Join(os.TempDir(), sub), true
	}
}

func mkDirIfNotExists(path string, perm fs.FileMode) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return os.MkdirAll(path, perm)
	} else if err != nil {
		return err
	}
	return nil
}

// Dir returns the first candidate that offers a directory, creating it when
// missing.
func Dir(perm fs.FileMode, candidates ...Candidate) (string, error) {
	for _, c := range candidates {
		if dir, ok := c(); ok {
			return dir, mkDirIfNotExists(dir, perm)
		}
	}
	return "", ErrNoDirectory
}
