package internal

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// RecentUploadsKey holds the upload history
const RecentUploadsKey = "tusty_recent_uploads"

// MaxRecentUploads bounds the upload history
const MaxRecentUploads = 12

// Upload statuses
const (
	UploadSuccess = "Success"
	UploadFailed  = "Failed"
)

// UploadRecord is one entry of the upload history
type UploadRecord struct {
	Name   string `json:"name" yaml:"name"`
	Size   string `json:"size" yaml:"size"`
	Time   string `json:"time" yaml:"time"`
	Status string `json:"status" yaml:"status"`
}

// UploadHistory keeps the most recent uploads, newest first.
type UploadHistory struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// NewUploadHistory creates an UploadHistory over store
func NewUploadHistory(store Store) *UploadHistory {
	return &UploadHistory{store: store, now: time.Now}
}

// List returns the history, newest first. Unreadable data yields an empty list.
func (h *UploadHistory) List() []UploadRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.load()
}

// Record prepends an entry for a finished upload attempt.
func (h *UploadHistory) Record(name string, size int64, status string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	items := append([]UploadRecord{{
		Name:   name,
		Size:   HumanSize(size),
		Time:   FormatDisplayTime(h.now()),
		Status: status,
	}}, h.load()...)
	if len(items) > MaxRecentUploads {
		items = items[:MaxRecentUploads]
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal upload history: %w", err)
	}
	return h.store.Set(RecentUploadsKey, string(data))
}

// Clear removes the history
func (h *UploadHistory) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Remove(RecentUploadsKey)
}

func (h *UploadHistory) load() []UploadRecord {
	raw, ok, err := h.store.Get(RecentUploadsKey)
	if err != nil {
		LogWarn("Failed to read upload history: %v", err)
		return []UploadRecord{}
	}
	if !ok {
		return []UploadRecord{}
	}
	var items []UploadRecord
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		LogWarn("Ignoring malformed upload history: %v", &ParseError{Source: "uploads", Key: RecentUploadsKey, Err: err})
		return []UploadRecord{}
	}
	if items == nil {
		items = []UploadRecord{}
	}
	return items
}

// HumanSize formats a byte count as B, KB, MB or GB.
func HumanSize(bytes int64) string {
	units := []string{"B", "KB", "MB", "GB"}
	n := float64(bytes)
	i := 0
	for n >= 1024 && i < len(units)-1 {
		n /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d %s", bytes, units[i])
	}
	return fmt.Sprintf("%.1f %s", n, units[i])
}
