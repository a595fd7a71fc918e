// Package repolist loads the inclusion and exclusion lists and decides
// which repositories a run may touch.
package repolist

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
)

// Set is a collection of "owner/repo" names.
type Set map[string]struct{}

func (s Set) Contains(fullName string) bool {
	_, ok := s[fullName]
	return ok
}

// Load reads a repository list file with one "owner/repo" per line.
// Blank lines and lines starting with "#" are ignored. A missing file is
// not an error; it yields an empty set.
func Load(path string) (Set, error) {
	set := Set{}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("no repository list file, proceeding without it")
			return set, nil
		}
		return nil, fmt.Errorf("failed to open repository list %s: %v", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		set[line] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read repository list %s: %v", path, err)
	}

	return set, nil
}

// Eligible reports whether a repository may be processed. A non-empty
// include set restricts the run to its members. The exclude set is checked
// last and always wins, even for repositories that are also included.
func Eligible(fullName string, include, exclude Set) bool {
	if len(include) > 0 && !include.Contains(fullName) {
		return false
	}
	return !exclude.Contains(fullName)
}
