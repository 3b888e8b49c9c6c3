// Package domain defines the persistence models for logged LLM interactions.
// These types are mapped with GORM and form the core data layer of the
// usage-analytics application.
package domain

import "time"

// Interaction status values. Every row carries exactly one of these; the
// pairing with ErrorMessage is enforced by the Outcome constructors rather
// than scattered presence checks.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// DefaultProvider is recorded when a model cannot be mapped to a backing
// provider.
const DefaultProvider = "openai"

// Interaction represents one logged attempt to obtain a chat completion,
// successful or not. Rows are written exactly once, after the provider call
// attempt completes, and are never updated afterward.
//
// Fields:
//   - ID: monotonically assigned by the store.
//   - UserID: identity of the caller; nil for anonymous requests.
//   - ModelName / Provider: requested model and its backing provider.
//   - QueryText / ResponseText: verbatim prompt and reply; the response holds
//     a sentinel placeholder when the upstream call returned no content.
//   - TokensUsed: total tokens reported by the provider; 0 on failure.
//   - Cost: derived deterministically from TokensUsed (see pricing package).
//   - Latency: elapsed call time in milliseconds; 0 if the call never completed.
//   - Status / ErrorMessage: outcome of the attempt; ErrorMessage is non-nil
//     if and only if Status is "error".
//   - Timestamp: insertion time, the sole time axis for all aggregates.
type Interaction struct {
	ID           uint      `json:"id"            gorm:"primaryKey;autoIncrement"`
	UserID       *string   `json:"user_id"       gorm:"type:varchar(64);index:idx_interactions_user"`
	ModelName    string    `json:"model_name"    gorm:"type:varchar(255);not null;index:idx_interactions_model"`
	Provider     string    `json:"provider"      gorm:"type:varchar(255);not null;default:'openai'"`
	QueryText    string    `json:"query_text"    gorm:"type:text;not null"`
	ResponseText string    `json:"response_text" gorm:"type:text"`
	TokensUsed   int       `json:"tokens_used"   gorm:"not null;default:0;check:tokens_used >= 0"`
	Cost         float64   `json:"cost"          gorm:"not null;default:0"`
	Latency      float64   `json:"latency"       gorm:"not null;default:0"`
	Status       string    `json:"status"        gorm:"type:varchar(20);not null;default:'success';check:status IN ('success','error')"`
	ErrorMessage *string   `json:"error_message" gorm:"type:text"`
	Timestamp    time.Time `json:"timestamp"     gorm:"autoCreateTime;index:idx_interactions_ts"`
}

// TableName returns the database table name for Interaction.
func (Interaction) TableName() string { return "interactions" }

// IsError reports whether the interaction recorded a failed attempt.
func (i *Interaction) IsError() bool { return i.Status == StatusError }
