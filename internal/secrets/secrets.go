// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files and
// from dotenv files.
//
// Each file in the secrets directory represents one secret: the filename is
// the key name and the file contents (trimmed) are the value. Supported key
// files: aws-access-key-id, aws-secret-access-key.
//
// Dotenv files populate the process environment, so GLEAM_VO_* settings and
// the AWS credential chain pick them up.
package secrets

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AWSAccessKeyID     = "aws-access-key-id"
	AWSSecretAccessKey = "aws-secret-access-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on w but do not abort.
func Load(dir string, w io.Writer) (map[string]string, error) {
	if w == nil {
		w = io.Discard
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadEnv loads dotenv files into the process environment. The first file
// never overrides variables that are already set; later files override
// everything loaded before them (e.g. ".env" then ".env.local"). Missing
// files are skipped. It returns the files that were loaded.
func LoadEnv(files ...string) ([]string, error) {
	var loaded []string
	for i, f := range files {
		if _, err := os.Stat(f); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		load := godotenv.Overload
		if i == 0 {
			load = godotenv.Load
		}
		if err := load(f); err != nil {
			return loaded, fmt.Errorf("loading %s: %w", f, err)
		}
		loaded = append(loaded, f)
	}
	return loaded, nil
}
