package store

import "time"

// FlashRecord captures the result of one firmware write.
type FlashRecord struct {
	Port      string    `json:"port"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
	Duration  string    `json:"duration"`
}

// ConfigureRecord captures the result of one name/ID provisioning attempt,
// including the chip-id verification outcome.
type ConfigureRecord struct {
	Port       string    `json:"port"`
	SignalID   string    `json:"signal_id"`
	SignalName string    `json:"signal_name"`
	Timestamp  time.Time `json:"timestamp"`
	Success    bool      `json:"success"`
	Duration   string    `json:"duration"`
}
