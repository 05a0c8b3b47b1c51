package notify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"snapbooth/site/internal/domain"
)

// Journal durably records notifications that could not be relayed.
type Journal interface {
	Record(ctx context.Context, entry domain.NotificationEntry) error
}

// FileJournal appends one JSON line per entry to a local file.
type FileJournal struct {
	file   *os.File
	logger zerolog.Logger
}

// OpenFileJournal opens (creating if needed) the journal at path.
func OpenFileJournal(path string) (*FileJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("notify: mkdir journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("notify: open journal: %w", err)
	}
	return &FileJournal{file: f, logger: zerolog.New(f).With().Timestamp().Logger()}, nil
}

func (j *FileJournal) Record(_ context.Context, e domain.NotificationEntry) error {
	j.logger.Log().
		Str("kind", string(e.Kind)).
		Str("reference", e.Reference).
		Str("subject", e.Subject).
		Str("body", e.Body).
		Str("reason", e.Reason).
		Str("error", e.Error).
		Int("attempts", e.Attempts).
		Time("created_at", e.CreatedAt).
		Msg("notification")
	return nil
}

func (j *FileJournal) Close() error {
	return j.file.Close()
}
