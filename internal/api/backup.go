package api

import (
	"net/http"

	"armkala-backend/internal/backup"
)

// SendBackup ships a backup archive right now, synchronously, so the client
// can surface the outcome.
func (a *API) SendBackup(w http.ResponseWriter, r *http.Request) {
	sender := a.Sender()
	if sender == nil {
		a.writeError(w, r, backup.ErrNotConfigured)
		return
	}
	user := actingUser(r)
	if err := sender.Send(r.Context(), []string{"manual backup"}, user); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.Ledger.LogAction(optional(user), "backup_send", "Backup sent", ""); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"sent": true})
}

// RestoreBackup pulls the newest archive from the channel and swaps it in.
func (a *API) RestoreBackup(w http.ResponseWriter, r *http.Request) {
	restorer := a.restorer()
	if restorer == nil {
		a.writeError(w, r, backup.ErrNotConfigured)
		return
	}
	filename, err := restorer.Restore(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	user := actingUser(r)
	if err := a.Ledger.LogAction(optional(user), "backup_restore", "Backup restored", filename); err != nil {
		a.Log.Warn().Err(err).Msg("action log write failed")
	}
	writeJSON(w, http.StatusOK, map[string]any{"restored": filename})
}

// GetSettings returns the mutable application settings. Credentials are
// reported by presence only.
func (a *API) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"inventory_file":           a.App.InventoryFile(),
		"theme":                    a.App.Theme(),
		"sell_price_alarm_percent": a.App.SellPriceAlarmPercent(),
		"backup_chat_id":           a.App.BackupChatID(),
		"bot_token_set":            a.App.BotToken() != "",
		"backup_passphrase_set":    a.App.BackupPassphrase() != "",
	})
}

// UpdateSettings applies the present fields. Empty strings clear the
// corresponding credential.
func (a *API) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme                 *string `json:"theme"`
		SellPriceAlarmPercent *int    `json:"sell_price_alarm_percent"`
		BotToken              *string `json:"bot_token"`
		BackupChatID          *string `json:"backup_chat_id"`
		BackupPassphrase      *string `json:"backup_passphrase"`
	}
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	apply := func(err error) bool {
		if err != nil {
			a.writeError(w, r, err)
			return false
		}
		return true
	}
	if req.Theme != nil && !apply(a.App.SetTheme(*req.Theme)) {
		return
	}
	if req.SellPriceAlarmPercent != nil && !apply(a.App.SetSellPriceAlarmPercent(*req.SellPriceAlarmPercent)) {
		return
	}
	if req.BotToken != nil && !apply(a.App.SetBotToken(*req.BotToken)) {
		return
	}
	if req.BackupChatID != nil && !apply(a.App.SetBackupChatID(*req.BackupChatID)) {
		return
	}
	if req.BackupPassphrase != nil && !apply(a.App.SetBackupPassphrase(*req.BackupPassphrase)) {
		return
	}
	a.GetSettings(w, r)
}
