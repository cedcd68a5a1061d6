// internal/models/notification.go
package models

import "time"

// Summary is the redacted view of an application kept in history.
type Summary struct {
	Name       string `json:"name"`
	PhoneLast4 string `json:"phone"`
}

func newSummary(name, phone string) Summary {
	s := Summary{Name: name, PhoneLast4: "unknown"}
	if s.Name == "" {
		s.Name = "unknown"
	}
	if phone != "" {
		runes := []rune(phone)
		if len(runes) > 4 {
			runes = runes[len(runes)-4:]
		}
		s.PhoneLast4 = string(runes)
	}
	return s
}

// NotificationRecord is one delivery attempt on one channel.
type NotificationRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	Category  Category  `json:"user_type"`
	SessionID string    `json:"session_id"`
	Success   bool      `json:"success"`
	Summary   Summary   `json:"data_summary"`
}

// NotificationStats aggregates the history.
type NotificationStats struct {
	Total   int                  `json:"total"`
	Success int                  `json:"success"`
	Failed  int                  `json:"failed"`
	Last10  []NotificationRecord `json:"last_10,omitempty"`
}
