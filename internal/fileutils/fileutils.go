// Package fileutils provides file and text-encoding helpers used by the CLI
// and the statement parsers.
package fileutils

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// FileExists checks if a file exists and is not a directory
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirectoryExists checks if a directory exists
func DirectoryExists(dirPath string) bool {
	info, err := os.Stat(dirPath)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// ReadFile reads the entire contents of a file and returns it as a byte slice
func ReadFile(filePath string) ([]byte, error) {
	if !FileExists(filePath) {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return data, nil
}

// WriteFile writes data to a file, creating parent directories if needed
func WriteFile(filePath string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filePath)
	if !DirectoryExists(dir) {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(filePath, data, perm); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// ListFilesWithExtension lists the regular files directly inside dirPath
// whose extension matches one of extensions (case-insensitive), sorted by name.
func ListFilesWithExtension(dirPath string, extensions ...string) ([]string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range extensions {
			if ext == strings.ToLower(want) {
				files = append(files, filepath.Join(dirPath, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// isUTF8 reports whether name denotes UTF-8 (or is empty).
func isUTF8(name string) bool {
	n := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", "-"))
	return n == "" || n == "utf-8" || n == "utf8"
}

// LookupEncoding resolves an IANA charset name such as "ISO-8859-1" or
// "windows-1252". UTF-8 resolves to a nil encoding.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if isUTF8(name) {
		return nil, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// DecodeText converts raw bytes in the named charset to UTF-8 and strips a
// leading UTF-8 byte order mark.
func DecodeText(raw []byte, name string) ([]byte, error) {
	enc, err := LookupEncoding(name)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		decoded, err := enc.NewDecoder().Bytes(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s text: %w", name, err)
		}
		raw = decoded
	}
	return bytes.TrimPrefix(raw, utf8BOM), nil
}

// FindConfigFile looks for a data file such as parser_configs.yaml in the
// standard locations: the path itself, ./config, ./database, then
// $HOME/.config/bank-recon.
func FindConfigFile(filename string) (string, error) {
	if filepath.IsAbs(filename) {
		if FileExists(filename) {
			return filename, nil
		}
		return "", os.ErrNotExist
	}

	locations := []string{
		filename,
		filepath.Join("config", filename),
		filepath.Join("database", filename),
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, filepath.Join(homeDir, ".config", "bank-recon", filename))
	}

	for _, location := range locations {
		if FileExists(location) {
			return location, nil
		}
	}
	return "", os.ErrNotExist
}
