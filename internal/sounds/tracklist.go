package sounds

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/desertthunder/bbcx/internal/shared"
)

// WriteTracklist writes one entry per line.
func WriteTracklist(w io.Writer, entries []string) error {
	bw := bufio.NewWriter(w)
	for i, entry := range entries {
		if strings.ContainsAny(entry, "\r\n") {
			return fmt.Errorf("%w: entry %d spans multiple lines", shared.ErrInvalidInput, i+1)
		}
		if _, err := bw.WriteString(entry + "\n"); err != nil {
			return fmt.Errorf("failed to write tracklist: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write tracklist: %w", err)
	}
	return nil
}

// ReadTracklist reads one entry per line, trimming whitespace and skipping blank lines.
func ReadTracklist(r io.Reader) ([]string, error) {
	var entries []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			entries = append(entries, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tracklist: %w", err)
	}
	return entries, nil
}

// SaveTracklist writes entries to path.
func SaveTracklist(path string, entries []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create tracklist file: %w", err)
	}

	if err := WriteTracklist(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LoadTracklist reads entries from path.
func LoadTracklist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tracklist file: %w", err)
	}
	defer f.Close()

	return ReadTracklist(f)
}
