package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dcexport/pkg/logger"
)

// Checkpoint records the high-water mark for a channel: the newest message
// id confirmed appended to the artifact. A later run pages backward from
// the live head and stops when it reaches this id, so already-exported
// history is never appended twice.
type Checkpoint struct {
	ChannelID     string    `json:"channel_id"`
	GuildID       string    `json:"guild_id"`
	LastMessageID string    `json:"last_message_id"`
	TotalExported int       `json:"total_exported"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Version       int       `json:"version"`
}

// Manager handles checkpoint persistence for one channel. The sidecar file
// lives next to the export artifact.
type Manager struct {
	path   string
	logger logger.Logger
}

// NewManager creates a checkpoint manager for a channel
func NewManager(dir, channelID string) (*Manager, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	return &Manager{
		path:   filepath.Join(dir, channelID+".checkpoint.json"),
		logger: logger.GetLogger(),
	}, nil
}

// Path returns the sidecar file location
func (m *Manager) Path() string {
	return m.path
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.path)
	return err == nil
}

// Load loads an existing checkpoint, returning nil when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}

	m.logger.DebugWithFields("checkpoint loaded", map[string]interface{}{
		"channel_id":      cp.ChannelID,
		"last_message_id": cp.LastMessageID,
		"total_exported":  cp.TotalExported,
	})

	return &cp, nil
}

// Save writes the checkpoint atomically via a temp file and rename
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	if cp.Version == 0 {
		cp.Version = 1
	}

	tempPath := m.path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	m.logger.DebugWithFields("checkpoint saved", map[string]interface{}{
		"channel_id":      cp.ChannelID,
		"last_message_id": cp.LastMessageID,
	})

	return nil
}

// Update advances the high-water mark after a fully successful run
func (m *Manager) Update(channelID, guildID, lastMessageID string, exported int) error {
	cp, err := m.Load()
	if err != nil {
		return err
	}
	if cp == nil {
		cp = &Checkpoint{ChannelID: channelID, GuildID: guildID}
	}

	cp.LastMessageID = lastMessageID
	cp.TotalExported += exported
	return m.Save(cp)
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	return nil
}
