package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"armkala-backend/internal/bot"
	"armkala-backend/internal/dates"
	"armkala-backend/internal/inventory"
	"armkala-backend/internal/ledger"
	"armkala-backend/internal/secrets"
)

// archivePrefix names backup files so the restore flow can recognize them.
const archivePrefix = "armkala-backup"

// ErrNotConfigured is returned when the bot token or channel is missing.
var ErrNotConfigured = errors.New("backup channel not configured")

// Sender assembles and ships one backup archive per call.
type Sender struct {
	Bot        *bot.Client
	ChatID     string
	Ledger     *ledger.Store
	Inventory  *inventory.Store
	Passphrase string
	Log        zerolog.Logger
}

// buildArchive zips a consistent ledger snapshot together with the inventory
// file. A missing inventory file is tolerated; the archive then carries only
// the database.
func (s *Sender) buildArchive() ([]byte, error) {
	tmpDir, err := os.MkdirTemp("", "armkala-backup-*")
	if err != nil {
		return nil, fmt.Errorf("create backup temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	dbCopy := filepath.Join(tmpDir, filepath.Base(s.Ledger.Path()))
	if err := s.Ledger.Snapshot(dbCopy); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	addFile := func(path string) error {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w, err := zw.Create(filepath.Base(path))
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		return err
	}

	if err := addFile(dbCopy); err != nil {
		zw.Close()
		return nil, fmt.Errorf("archive ledger snapshot: %w", err)
	}
	if invPath := s.Inventory.Path(); invPath != "" {
		if err := addFile(invPath); err != nil {
			if !os.IsNotExist(err) {
				zw.Close()
				return nil, fmt.Errorf("archive inventory file: %w", err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}

func caption(reasons []string, username string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📦 %s\n", dates.Timestamp(time.Now()))
	if len(reasons) > 0 {
		fmt.Fprintf(&b, "Reasons: %s\n", strings.Join(reasons, ", "))
	}
	if username != "" {
		fmt.Fprintf(&b, "By: %s", username)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Send builds the archive and uploads it with a captioned document message.
func (s *Sender) Send(ctx context.Context, reasons []string, username string) error {
	if s.Bot == nil || s.ChatID == "" {
		return ErrNotConfigured
	}

	archive, err := s.buildArchive()
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("%s_%s.zip", archivePrefix, dates.FileStamp(time.Now()))
	if s.Passphrase != "" {
		sealed, err := secrets.Seal(archive, s.Passphrase)
		if err != nil {
			return fmt.Errorf("seal archive: %w", err)
		}
		archive = sealed
		filename += ".enc"
	}

	_, err = s.Bot.SendDocument(ctx, s.ChatID, filename, bytes.NewReader(archive), caption(reasons, username))
	if err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}
	s.Log.Info().Str("file", filename).Strs("reasons", reasons).Msg("backup sent")
	return nil
}

// Notify adapts Send for the Notifier: transport failures are logged, never
// propagated, because a missed backup must not fail the operation that
// triggered it.
func (s *Sender) Notify(reasons []string, username string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.Send(ctx, reasons, username); err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return
		}
		s.Log.Warn().Err(err).Strs("reasons", reasons).Msg("automatic backup failed")
	}
}
