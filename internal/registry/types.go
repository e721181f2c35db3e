// Package registry implements versioned, immutable prompt and model
// registries with audit trails, promotion gates, and instant rollback.
// Registries are plain dependencies: construct one and inject it, no
// package-level singletons.
package registry

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"resumeiq/internal/types"
)

// PromptStatus is the lifecycle state of a prompt version.
type PromptStatus string

const (
	StatusDraft      PromptStatus = "draft"       // In development
	StatusTesting    PromptStatus = "testing"     // Under evaluation
	StatusProduction PromptStatus = "production"  // Live in production
	StatusDeprecated PromptStatus = "deprecated"  // Scheduled for removal
	StatusRolledBack PromptStatus = "rolled_back" // Previously production, now inactive
)

// ModelTier ranks model capability.
type ModelTier string

const (
	TierEconomy   ModelTier = "economy"   // Fastest, cheapest
	TierStandard  ModelTier = "standard"  // Balanced
	TierPremium   ModelTier = "premium"   // Best quality
	TierReasoning ModelTier = "reasoning" // Complex reasoning
)

// tierOrder ranks tiers from weakest to strongest.
var tierOrder = []ModelTier{TierEconomy, TierStandard, TierPremium, TierReasoning}

func tierIndex(t ModelTier) int {
	for i, tier := range tierOrder {
		if tier == t {
			return i
		}
	}
	return -1
}

// PromptVersion is one immutable version of a named prompt. Once
// registered, versions never change; lifecycle status transitions happen
// by replacing the stored value, never by mutating a published copy held
// by a caller.
type PromptVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"` // Semantic versioning: "1.0.0"

	SystemPrompt string `json:"system_prompt"`
	UserTemplate string `json:"user_template"`

	RequiredVariables []string `json:"required_variables,omitempty"`
	MaxInputLength    int      `json:"max_input_length"`
	MaxOutputLength   int      `json:"max_output_length"`

	MinModelTier     ModelTier `json:"min_model_tier"`
	RecommendedModel string    `json:"recommended_model,omitempty"`

	Status      PromptStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	PromotedAt  time.Time    `json:"promoted_at,omitempty"`
	CreatedBy   string       `json:"created_by"`
	ChangeNotes string       `json:"change_notes,omitempty"`

	// QualityScore and SafetyScore gate promotion. Negative means unset.
	QualityScore float64 `json:"quality_score"`
	SafetyScore  float64 `json:"safety_score"`

	ContentHash string `json:"content_hash"`
}

// NewPromptVersion builds a prompt version with its content hash.
// Scores start unset.
func NewPromptVersion(name, version, systemPrompt, userTemplate string, requiredVars []string) PromptVersion {
	return PromptVersion{
		Name:              name,
		Version:           version,
		SystemPrompt:      systemPrompt,
		UserTemplate:      userTemplate,
		RequiredVariables: requiredVars,
		MaxInputLength:    4000,
		MaxOutputLength:   2000,
		MinModelTier:      TierStandard,
		Status:            StatusDraft,
		CreatedAt:         time.Now().UTC(),
		CreatedBy:         "system",
		QualityScore:      -1,
		SafetyScore:       -1,
		ContentHash:       contentHash(systemPrompt, userTemplate),
	}
}

func contentHash(systemPrompt, userTemplate string) string {
	sum := sha256.Sum256([]byte(systemPrompt + "|" + userTemplate))
	return hex.EncodeToString(sum[:])[:16]
}

// VerifyIntegrity reports whether the content still matches its hash.
func (p PromptVersion) VerifyIntegrity() bool {
	return p.ContentHash == contentHash(p.SystemPrompt, p.UserTemplate)
}

// HasScores reports whether evaluation scores have been recorded.
func (p PromptVersion) HasScores() bool {
	return p.QualityScore >= 0 || p.SafetyScore >= 0
}

// Render substitutes variables into the system prompt and user template.
// All required variables must be provided.
func (p PromptVersion) Render(variables map[string]string) (system, user string, err error) {
	for _, required := range p.RequiredVariables {
		if _, ok := variables[required]; !ok {
			return "", "", types.NewValidationError(required, "missing required variable")
		}
	}

	system = p.SystemPrompt
	user = p.UserTemplate
	for key, value := range variables {
		placeholder := "{" + key + "}"
		system = strings.ReplaceAll(system, placeholder, value)
		user = strings.ReplaceAll(user, placeholder, value)
	}
	return system, user, nil
}

// ModelConfig describes one AI model.
type ModelConfig struct {
	ModelID  string    `json:"model_id"`
	Provider string    `json:"provider"` // openai, anthropic, google
	Tier     ModelTier `json:"tier"`

	MaxTokens         int  `json:"max_tokens"`
	ContextWindow     int  `json:"context_window"`
	SupportsFunctions bool `json:"supports_functions"`
	SupportsVision    bool `json:"supports_vision"`
	SupportsStreaming bool `json:"supports_streaming"`

	CostPer1MInput  float64 `json:"cost_per_1m_input"`
	CostPer1MOutput float64 `json:"cost_per_1m_output"`

	AvgLatencyMS     float64 `json:"avg_latency_ms"`
	ReliabilityScore float64 `json:"reliability_score"`

	Notes string `json:"notes,omitempty"`
}

// EstimateCost estimates the cost of a request in dollars.
func (m ModelConfig) EstimateCost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1_000_000*m.CostPer1MInput +
		float64(outputTokens)/1_000_000*m.CostPer1MOutput
}

// AuditEvent is one registry governance event.
type AuditEvent struct {
	Action    string    `json:"action"` // register, promote, rollback
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (e AuditEvent) String() string {
	return fmt.Sprintf("%s %s@%s at %s", e.Action, e.Name, e.Version, e.Timestamp.Format(time.RFC3339))
}
