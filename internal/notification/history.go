package notification

import (
	"sync"

	"lead-consultant/internal/models"
)

// DefaultHistoryLimit is the number of attempts kept in memory.
const DefaultHistoryLimit = 100

const statsTail = 10

// History is a fixed size ring of delivery attempts; the oldest record is
// overwritten once the ring is full.
type History struct {
	mu      sync.RWMutex
	records []models.NotificationRecord
	head    int
	full    bool
}

func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &History{records: make([]models.NotificationRecord, limit)}
}

func (h *History) Add(r models.NotificationRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.records[h.head] = r
	h.head = (h.head + 1) % len(h.records)
	if h.head == 0 {
		h.full = true
	}
}

// Records returns the attempts oldest first.
func (h *History) Records() []models.NotificationRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.full {
		return append([]models.NotificationRecord{}, h.records[:h.head]...)
	}
	out := make([]models.NotificationRecord, 0, len(h.records))
	out = append(out, h.records[h.head:]...)
	return append(out, h.records[:h.head]...)
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.records)
	}
	return h.head
}

// Stats counts the kept attempts and returns the last ten.
func (h *History) Stats() models.NotificationStats {
	records := h.Records()

	stats := models.NotificationStats{Total: len(records)}
	for _, r := range records {
		if r.Success {
			stats.Success++
		}
	}
	stats.Failed = stats.Total - stats.Success

	if len(records) > 0 {
		from := len(records) - statsTail
		if from < 0 {
			from = 0
		}
		stats.Last10 = records[from:]
	}
	return stats
}
