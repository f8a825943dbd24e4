package config

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"armkala-backend/internal/secrets"
)

// appConfigDoc is the on-disk shape. Credentials are stored sealed, never as
// plaintext JSON.
type appConfigDoc struct {
	InventoryFile    string `json:"inventory_file"`
	Theme            string `json:"theme"`
	SellPriceAlarmPercent int `json:"sell_price_alarm_percent"`
	BotToken         string `json:"bot_token,omitempty"`
	BackupChatID     string `json:"backup_chat_id,omitempty"`
	BackupPassphrase string `json:"backup_passphrase,omitempty"`
}

// AppConfig holds the user-mutable settings. Saves go through a temp file
// and rename so a crash never truncates the document.
type AppConfig struct {
	mu   sync.Mutex
	path string
	key  string
	doc  appConfigDoc
}

// LoadAppConfig reads (or initializes) the settings document. The sealing
// key lives beside it; losing the key only costs re-entering credentials.
func LoadAppConfig(path string) (*AppConfig, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	key, err := loadOrCreateKey(filepath.Join(filepath.Dir(path), ".keyseed"))
	if err != nil {
		return nil, err
	}

	a := &AppConfig{
		path: path,
		key:  key,
		doc:  appConfigDoc{Theme: "light", SellPriceAlarmPercent: 20},
	}
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return a, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read app config: %w", err)
	}
	if err := json.Unmarshal(raw, &a.doc); err != nil {
		return nil, fmt.Errorf("parse app config: %w", err)
	}
	return a, nil
}

func loadOrCreateKey(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err == nil && len(raw) > 0 {
		return string(raw), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("read key seed: %w", err)
	}
	seed := make([]byte, 32)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("generate key seed: %w", err)
	}
	key := hex.EncodeToString(seed)
	if err := os.WriteFile(path, []byte(key), 0o600); err != nil {
		return "", fmt.Errorf("write key seed: %w", err)
	}
	return key, nil
}

func (a *AppConfig) saveLocked() error {
	raw, err := json.MarshalIndent(a.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode app config: %w", err)
	}
	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write app config: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace app config: %w", err)
	}
	return nil
}

func (a *AppConfig) seal(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	sealed, err := secrets.Seal([]byte(value), a.key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (a *AppConfig) unseal(stored string) string {
	if stored == "" {
		return ""
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return ""
	}
	value, err := secrets.Open(raw, a.key)
	if err != nil {
		return ""
	}
	return string(value)
}

// InventoryFile returns the configured inventory spreadsheet path.
func (a *AppConfig) InventoryFile() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.InventoryFile
}

// SetInventoryFile persists a new inventory spreadsheet path.
func (a *AppConfig) SetInventoryFile(path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc.InventoryFile = path
	return a.saveLocked()
}

// Theme returns the UI theme name.
func (a *AppConfig) Theme() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.Theme
}

// SetTheme persists the UI theme name.
func (a *AppConfig) SetTheme(theme string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc.Theme = theme
	return a.saveLocked()
}

// SellPriceAlarmPercent is the pricing-margin alarm: the client flags rows
// whose sell price sits less than this percentage above the buy price.
func (a *AppConfig) SellPriceAlarmPercent() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.SellPriceAlarmPercent
}

// SetSellPriceAlarmPercent persists the margin alarm, clamped to [0, 100].
func (a *AppConfig) SetSellPriceAlarmPercent(percent int) error {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc.SellPriceAlarmPercent = percent
	return a.saveLocked()
}

// BotToken returns the unsealed bot token, empty when unset.
func (a *AppConfig) BotToken() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unseal(a.doc.BotToken)
}

// SetBotToken seals and persists the bot token. Empty clears it.
func (a *AppConfig) SetBotToken(token string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sealed, err := a.seal(token)
	if err != nil {
		return err
	}
	a.doc.BotToken = sealed
	return a.saveLocked()
}

// BackupChatID returns the backup channel or chat id.
func (a *AppConfig) BackupChatID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.doc.BackupChatID
}

// SetBackupChatID persists the backup channel or chat id.
func (a *AppConfig) SetBackupChatID(chatID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.doc.BackupChatID = chatID
	return a.saveLocked()
}

// BackupPassphrase returns the unsealed archive passphrase, empty when unset.
func (a *AppConfig) BackupPassphrase() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.unseal(a.doc.BackupPassphrase)
}

// SetBackupPassphrase seals and persists the archive passphrase.
func (a *AppConfig) SetBackupPassphrase(passphrase string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	sealed, err := a.seal(passphrase)
	if err != nil {
		return err
	}
	a.doc.BackupPassphrase = sealed
	return a.saveLocked()
}
