package tradelog

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
)

// JSONL appends trade records to one JSON-lines file per account under a base
// directory.
type JSONL struct {
	dir string
}

func NewJSONL(dir string) *JSONL {
	return &JSONL{dir: dir}
}

func (s *JSONL) Append(rec Record) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		log.Printf("[TRADELOG] failed to create %s: %v", s.dir, err)
		return
	}
	path := s.accountPath(rec.AccountID)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[TRADELOG] failed to open %s: %v", path, err)
		return
	}
	defer f.Close()

	data, err := json.Marshal(rec)
	if err != nil {
		log.Printf("[TRADELOG] failed to marshal trade %s: %v", rec.TradeID, err)
		return
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("[TRADELOG] failed to append trade %s: %v", rec.TradeID, err)
	}
}

// Load returns up to limit most recent records for an account. Malformed
// lines are skipped.
func (s *JSONL) Load(accountID string, limit int) []Record {
	f, err := os.Open(s.accountPath(accountID))
	if err != nil {
		return nil
	}
	defer f.Close()

	var rows []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		rows = append(rows, rec)
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows
}

func (s *JSONL) accountPath(accountID string) string {
	var b strings.Builder
	for _, c := range accountID {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9',
			c == '-', c == '_', c == '.':
			b.WriteRune(c)
		default:
			b.WriteRune('_')
		}
	}
	return filepath.Join(s.dir, b.String()+".jsonl")
}
