// Package storex provides the write-then-replace JSON persistence helper
// used by every small state file under ${data_dir}: personality.json,
// conversation.json, token_budget.json, rate_limits.json. State is written
// to a temp file and renamed into place; rename is not assumed atomic on
// every platform, so a failure to rename is logged rather than propagated.
package storex

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// SaveJSON writes v to path as JSON using temp-file + rename. Failures are
// swallowed and only logged; a failed write never propagates, and the
// caller keeps its in-memory state authoritative.
func SaveJSON(log zerolog.Logger, path string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("marshal state failed")
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("mkdir for state failed")
		return
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("write temp state failed")
		return
	}
	if err := os.Rename(tmp, path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("rename temp state failed; platform may not support atomic rename")
	}
}

// LoadJSON reads path into v. A missing or corrupt file is not an error to
// the caller: it returns false so the caller can reset that component to
// its defaults.
func LoadJSON(log zerolog.Logger, path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", path).Msg("read state failed")
		}
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("corrupt state file, resetting to defaults")
		return false
	}
	return true
}

// AppendLine appends one line to a text journal file (thoughts.log,
// journal.log), creating it if necessary.
func AppendLine(log zerolog.Logger, path, line string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("mkdir for journal failed")
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("open journal failed")
		return
	}
	defer f.Close()
	if _, err := f.WriteString(line + "\n"); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("append journal failed")
	}
}
