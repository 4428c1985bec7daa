package pipeline

import (
	"bufio"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Input file names are FilePrefix, four ASCII digits, then FileSuffix.
const (
	FilePrefix = "pagina_"
	FileSuffix = ".csv"
	fileDigits = 4
)

// IsInputFile reports whether name follows the pagina_NNNN.csv pattern.
func IsInputFile(name string) bool {
	if len(name) != len(FilePrefix)+fileDigits+len(FileSuffix) {
		return false
	}
	if !strings.HasPrefix(name, FilePrefix) || !strings.HasSuffix(name, FileSuffix) {
		return false
	}
	for _, c := range name[len(FilePrefix) : len(FilePrefix)+fileDigits] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// DiscoverFiles lists dir and returns the input file names it contains in
// lexicographic order. Other entries are ignored.
func DiscoverFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing input directory %s", dir)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !IsInputFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// readLine returns the next line without its terminator. A final line without
// a newline is returned with a nil error; io.EOF is only returned once nothing
// is left.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
