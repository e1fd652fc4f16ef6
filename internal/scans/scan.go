// Package scans records classification results and serves each owner's scan
// history and generated reports. Records are immutable once written.
package scans

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Scan is a persisted classification result owned by a single user.
type Scan struct {
	ID              uuid.UUID     `json:"id"`
	UserID          uuid.UUID     `json:"user_id"`
	Classification  string        `json:"classification"`
	ConfidenceScore float64       `json:"confidence_score"`
	ReportFile      string        `json:"report_file"`
	Severity        *string       `json:"severity,omitempty"`
	Probabilities   Probabilities `json:"probabilities,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// Probabilities maps class labels to likelihoods in [0,1]. It is stored as
// JSONB; an empty map is stored as NULL.
type Probabilities map[string]float64

// Value implements driver.Valuer.
func (p Probabilities) Value() (driver.Value, error) {
	if len(p) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(map[string]float64(p))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (p *Probabilities) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*p = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("scan probabilities: unsupported type %T", src)
	}

	var m map[string]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("scan probabilities: %w", err)
	}
	*p = m
	return nil
}
