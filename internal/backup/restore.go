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

	"github.com/rs/zerolog"

	"armkala-backend/internal/bot"
	"armkala-backend/internal/inventory"
	"armkala-backend/internal/ledger"
	"armkala-backend/internal/secrets"
)

var (
	ErrNoBackupFound = errors.New("no backup archive found in channel history")
	ErrNeedsPassword = errors.New("backup archive is sealed and no passphrase is configured")
)

// extract limits: a hostile archive must not exhaust disk or memory.
const (
	maxArchiveSize = 200 << 20
	maxEntrySize   = 500 << 20
)

// Restorer pulls the most recent backup archive from the channel and
// replaces the live ledger database and inventory file with its contents.
type Restorer struct {
	Bot        *bot.Client
	Ledger     *ledger.Store
	Inventory  *inventory.Store
	Passphrase string
	Log        zerolog.Logger
}

func isBackupDocument(doc *bot.Document) bool {
	return doc != nil && strings.HasPrefix(doc.FileName, archivePrefix)
}

// latestArchive walks the update queue and keeps the newest backup document.
func (r *Restorer) latestArchive(ctx context.Context) (*bot.Document, error) {
	var (
		offset int64
		found  *bot.Document
	)
	for {
		updates, err := r.Bot.GetUpdates(ctx, offset, 100)
		if err != nil {
			return nil, err
		}
		if len(updates) == 0 {
			break
		}
		for _, u := range updates {
			msg := u.ChannelPost
			if msg == nil {
				msg = u.Message
			}
			if msg != nil && isBackupDocument(msg.Document) {
				found = msg.Document
			}
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
		}
	}
	if found == nil {
		return nil, ErrNoBackupFound
	}
	return found, nil
}

// Restore downloads the latest archive, unseals it if needed, and swaps the
// extracted files into place. Each file is written next to its target and
// renamed in, so a crash mid-restore never leaves a half-written live file.
func (r *Restorer) Restore(ctx context.Context) (string, error) {
	if r.Bot == nil {
		return "", ErrNotConfigured
	}

	doc, err := r.latestArchive(ctx)
	if err != nil {
		return "", err
	}

	body, err := r.Bot.Download(ctx, doc.FileID)
	if err != nil {
		return "", err
	}
	defer body.Close()
	raw, err := io.ReadAll(io.LimitReader(body, maxArchiveSize))
	if err != nil {
		return "", fmt.Errorf("read backup archive: %w", err)
	}

	if secrets.IsSealed(raw) {
		if r.Passphrase == "" {
			return "", ErrNeedsPassword
		}
		raw, err = secrets.Open(raw, r.Passphrase)
		if err != nil {
			return "", fmt.Errorf("unseal backup archive: %w", err)
		}
	}

	zr, err := zip.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("open backup archive: %w", err)
	}

	dbName := filepath.Base(r.Ledger.Path())
	invName := filepath.Base(r.Inventory.Path())
	restoredDB := false

	for _, entry := range zr.File {
		name := filepath.Base(entry.Name)
		var target string
		switch {
		case name == dbName:
			target = r.Ledger.Path()
		case invName != "" && name == invName:
			target = r.Inventory.Path()
		default:
			r.Log.Debug().Str("entry", entry.Name).Msg("skipping unrecognized archive entry")
			continue
		}

		tmpPath := target + ".restore"
		if err := extractEntry(entry, tmpPath); err != nil {
			return "", err
		}
		if target == r.Ledger.Path() {
			if err := r.Ledger.ReplaceFrom(tmpPath); err != nil {
				os.Remove(tmpPath)
				return "", err
			}
			restoredDB = true
			continue
		}
		if err := os.Rename(tmpPath, target); err != nil {
			os.Remove(tmpPath)
			return "", fmt.Errorf("replace inventory file: %w", err)
		}
		if _, err := r.Inventory.Reload(); err != nil {
			return "", fmt.Errorf("reload restored inventory: %w", err)
		}
	}

	if !restoredDB {
		return "", fmt.Errorf("archive %s holds no ledger database", doc.FileName)
	}
	r.Log.Info().Str("file", doc.FileName).Msg("backup restored")
	return doc.FileName, nil
}

func extractEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("write restored file: %w", err)
	}
	if _, err := io.Copy(dst, io.LimitReader(src, maxEntrySize)); err != nil {
		dst.Close()
		os.Remove(target)
		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(target)
		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}
	return nil
}
