package utils

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/pkg/errors"
)

// WriteJSON writes v as indented JSON to path. The file is replaced
// atomically so a reader never sees a partial report. Missing parent
// directories are created.
func WriteJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.Wrap(err, "creating report directory")
		}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "encoding report")
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return errors.Wrapf(err, "writing report %s", path)
	}
	return nil
}
