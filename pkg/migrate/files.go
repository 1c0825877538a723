package migrate

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

const versionLayout = "20060102150405"

var (
	fileNameRe = regexp.MustCompile(`^(\d{14})_([a-z0-9]+(?:_[a-z0-9]+)*)\.sql$`)
	slugRe     = regexp.MustCompile(`[^a-z0-9]+`)
)

// ValidateDir checks the migrations in dir on disk.
func ValidateDir(dir string) error {
	if dir == "" {
		return errors.New("dir is required")
	}
	return Validate(os.DirFS(dir), ".")
}

// ValidateEmbedded checks the migrations compiled into the binary.
func ValidateEmbedded() error {
	return Validate(embeddedMigrations, embeddedDir)
}

// Validate requires YYYYMMDDHHMMSS_slug.sql names with unique versions and
// a goose Up section ahead of its Down section.
func Validate(fsys fs.FS, dir string) error {
	names, err := fs.Glob(fsys, path.Join(dir, "*.sql"))
	if err != nil {
		return err
	}
	sort.Strings(names)

	var problems []error
	owner := map[string]string{}
	for _, full := range names {
		name := path.Base(full)
		m := fileNameRe.FindStringSubmatch(name)
		if m == nil {
			problems = append(problems, fmt.Errorf("%s: name must look like YYYYMMDDHHMMSS_slug.sql", name))
			continue
		}
		if _, err := time.Parse(versionLayout, m[1]); err != nil {
			problems = append(problems, fmt.Errorf("%s: version is not a timestamp", name))
		}
		if prev, dup := owner[m[1]]; dup {
			problems = append(problems, fmt.Errorf("%s: version already used by %s", name, prev))
		}
		owner[m[1]] = name

		body, err := fs.ReadFile(fsys, full)
		if err != nil {
			return err
		}
		if err := checkSections(string(body)); err != nil {
			problems = append(problems, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(problems...)
}

func checkSections(sql string) error {
	up := strings.Index(sql, "-- +goose Up")
	down := strings.Index(sql, "-- +goose Down")
	switch {
	case up < 0:
		return errors.New(`missing "-- +goose Up"`)
	case down < 0:
		return errors.New(`missing "-- +goose Down"`)
	case down < up:
		return errors.New("Down section precedes Up")
	}
	return nil
}

// CreateSQLMigration writes an empty goose migration stamped with now (UTC)
// and returns its path.
func CreateSQLMigration(dir, name string, now time.Time) (string, error) {
	slug := strings.Trim(slugRe.ReplaceAllString(strings.ToLower(name), "_"), "_")
	if slug == "" {
		return "", fmt.Errorf("migration name %q has no usable characters", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	target := filepath.Join(dir, now.UTC().Format(versionLayout)+"_"+slug+".sql")
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "-- +goose Up\n-- +goose StatementBegin\n-- %[1]s\n-- +goose StatementEnd\n\n-- +goose Down\n-- +goose StatementBegin\n-- revert %[1]s\n-- +goose StatementEnd\n", slug)
	return target, err
}
