// Package ingest reads intercepted message records from CSV captures.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mzashi/moodkey/internal/model"
)

// ReadMessages parses CSV with a header row. The "ciphertext" column is
// required; "mood" and "username_enc" are optional, and an empty mood cell
// means the side-channel value was not captured for that message.
func ReadMessages(r io.Reader) ([]model.Message, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("capture is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	ctCol, ok := cols["ciphertext"]
	if !ok {
		return nil, fmt.Errorf("capture has no ciphertext column")
	}
	moodCol, hasMood := cols["mood"]
	userCol, hasUser := cols["username_enc"]

	var msgs []model.Message
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", line, err)
		}
		msg := model.Message{
			Label:      fmt.Sprintf("message-%d", len(msgs)+1),
			Ciphertext: field(row, ctCol),
		}
		if hasMood {
			raw := strings.TrimSpace(field(row, moodCol))
			if raw != "" {
				mood, err := strconv.Atoi(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d: invalid mood %q: %w", line, raw, err)
				}
				msg.Mood = &mood
			}
		}
		if hasUser {
			msg.UsernameEnc = field(row, userCol)
		}
		msgs = append(msgs, msg)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("capture has no messages")
	}
	return msgs, nil
}

// LoadMessages reads a capture file from disk.
func LoadMessages(path string) ([]model.Message, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for a read-only capture.
			_ = cerr
		}
	}()
	msgs, err := ReadMessages(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return msgs, nil
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
