// Package api exposes the application core over a loopback HTTP surface for
// the desktop client.
package api

import (
	"net/http"

	"github.com/rs/zerolog"

	"armkala-backend/internal/backup"
	"armkala-backend/internal/bot"
	"armkala-backend/internal/config"
	"armkala-backend/internal/inventory"
	"armkala-backend/internal/ledger"
	"armkala-backend/internal/match"
)

// API carries the wired application state into the handlers.
type API struct {
	Cfg       config.Config
	App       *config.AppConfig
	Log       zerolog.Logger
	Inventory *inventory.Store
	Ledger    *ledger.Store
	Comp      *ledger.Compensator
	Notifier  *backup.Notifier
}

// Sender builds a backup sender from the current settings, nil when the bot
// is not configured. Built per call because the token can change at runtime.
func (a *API) Sender() *backup.Sender {
	token := a.App.BotToken()
	if token == "" {
		return nil
	}
	return &backup.Sender{
		Bot:        bot.New(token, ""),
		ChatID:     a.App.BackupChatID(),
		Ledger:     a.Ledger,
		Inventory:  a.Inventory,
		Passphrase: a.App.BackupPassphrase(),
		Log:        a.Log,
	}
}

func (a *API) restorer() *backup.Restorer {
	token := a.App.BotToken()
	if token == "" {
		return nil
	}
	return &backup.Restorer{
		Bot:        bot.New(token, ""),
		Ledger:     a.Ledger,
		Inventory:  a.Inventory,
		Passphrase: a.App.BackupPassphrase(),
		Log:        a.Log,
	}
}

// Health reports liveness and whether an inventory snapshot is loaded.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":           "ok",
		"inventory_loaded": a.Inventory.Loaded(),
	})
}

// ListProducts returns the loaded inventory rows.
func (a *API) ListProducts(w http.ResponseWriter, r *http.Request) {
	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rows":  table.Rows,
		"count": len(table.Rows),
	})
}

// SuggestProducts is the autocomplete endpoint: loose-cutoff fuzzy matches
// for a partial query.
func (a *API) SuggestProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit := queryInt(r, "limit", 10)
	table, err := a.Inventory.Snapshot()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	idx := match.NewIndex(table.Names())
	matches := idx.Extract(query, match.SuggestCutoff, limit)
	writeJSON(w, http.StatusOK, map[string]any{"matches": matches})
}
