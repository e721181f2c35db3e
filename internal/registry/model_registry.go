package registry

import (
	"sort"
	"sync"
	"time"

	"resumeiq/internal/logging"
	"resumeiq/internal/store"
	"resumeiq/internal/types"
)

// ModelRegistry holds model configurations and implements selection and
// fallback logic. Like the prompt registry, mutations on the same model
// id fail fast when another mutation is in flight.
type ModelRegistry struct {
	mu            sync.RWMutex
	models        map[string]ModelConfig
	defaultByTier map[ModelTier]string
	history       []AuditEvent

	inflightMu sync.Mutex
	inflight   map[string]bool

	sink *store.Store
	log  *logging.Logger
}

// SelectRequest constrains model selection.
type SelectRequest struct {
	MinTier        ModelTier
	PreferProvider string
	MaxCostPer1M   float64 // zero means no cap
	RequireVision  bool
}

// NewModelRegistry builds a registry seeded with the default model catalog.
func NewModelRegistry() *ModelRegistry {
	r := &ModelRegistry{
		models:        make(map[string]ModelConfig),
		defaultByTier: make(map[ModelTier]string),
		inflight:      make(map[string]bool),
		log:           logging.Get(logging.CategoryRegistry),
	}
	r.registerDefaults()
	return r
}

// WithAuditStore attaches a durable audit sink.
func (r *ModelRegistry) WithAuditStore(s *store.Store) *ModelRegistry {
	r.sink = s
	return r
}

func (r *ModelRegistry) registerDefaults() {
	defaults := []ModelConfig{
		{
			ModelID: "gpt-4o", Provider: "openai", Tier: TierPremium,
			MaxTokens: 16384, ContextWindow: 128000,
			SupportsFunctions: true, SupportsVision: true, SupportsStreaming: true,
			CostPer1MInput: 2.50, CostPer1MOutput: 10.00,
			AvgLatencyMS: 800, ReliabilityScore: 0.99,
		},
		{
			ModelID: "gpt-4o-mini", Provider: "openai", Tier: TierStandard,
			MaxTokens: 16384, ContextWindow: 128000,
			SupportsFunctions: true, SupportsStreaming: true,
			CostPer1MInput: 0.15, CostPer1MOutput: 0.60,
			AvgLatencyMS: 400, ReliabilityScore: 0.99,
		},
		{
			ModelID: "claude-3-5-sonnet-20241022", Provider: "anthropic", Tier: TierPremium,
			MaxTokens: 8192, ContextWindow: 200000,
			SupportsFunctions: true, SupportsVision: true, SupportsStreaming: true,
			CostPer1MInput: 3.00, CostPer1MOutput: 15.00,
			AvgLatencyMS: 600, ReliabilityScore: 0.99,
		},
		{
			ModelID: "claude-3-5-haiku-20241022", Provider: "anthropic", Tier: TierEconomy,
			MaxTokens: 8192, ContextWindow: 200000,
			SupportsFunctions: true, SupportsStreaming: true,
			CostPer1MInput: 0.80, CostPer1MOutput: 4.00,
			AvgLatencyMS: 300, ReliabilityScore: 0.99,
		},
	}

	for _, m := range defaults {
		r.models[m.ModelID] = m
		if _, ok := r.defaultByTier[m.Tier]; !ok {
			r.defaultByTier[m.Tier] = m.ModelID
		}
	}
}

// Register adds or replaces a model configuration.
func (r *ModelRegistry) Register(m ModelConfig) error {
	if m.ModelID == "" {
		return types.NewValidationError("model_id", "required")
	}
	if tierIndex(m.Tier) < 0 {
		return types.NewValidationError("tier", "unknown tier "+string(m.Tier))
	}

	r.inflightMu.Lock()
	if r.inflight[m.ModelID] {
		r.inflightMu.Unlock()
		return &types.ConcurrentModificationError{Registry: "model", ID: m.ModelID}
	}
	r.inflight[m.ModelID] = true
	r.inflightMu.Unlock()
	defer func() {
		r.inflightMu.Lock()
		delete(r.inflight, m.ModelID)
		r.inflightMu.Unlock()
	}()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.models[m.ModelID] = m
	if _, ok := r.defaultByTier[m.Tier]; !ok {
		r.defaultByTier[m.Tier] = m.ModelID
	}
	r.logEvent("register", m.ModelID, string(m.Tier))
	return nil
}

// Get returns a model configuration.
func (r *ModelRegistry) Get(modelID string) (ModelConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.models[modelID]
	return m, ok
}

// Select picks the best model satisfying the request. Preference order:
// provider match, then the lowest satisfying tier, then the cheapest
// input cost. Returns false when nothing qualifies.
func (r *ModelRegistry) Select(req SelectRequest) (ModelConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	minIdx := tierIndex(req.MinTier)
	if minIdx < 0 {
		minIdx = tierIndex(TierStandard)
	}

	var candidates []ModelConfig
	for _, m := range r.models {
		if tierIndex(m.Tier) < minIdx {
			continue
		}
		if req.RequireVision && !m.SupportsVision {
			continue
		}
		if req.MaxCostPer1M > 0 && m.CostPer1MInput > req.MaxCostPer1M {
			continue
		}
		candidates = append(candidates, m)
	}
	if len(candidates) == 0 {
		return ModelConfig{}, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		am := req.PreferProvider != "" && a.Provider == req.PreferProvider
		bm := req.PreferProvider != "" && b.Provider == req.PreferProvider
		if am != bm {
			return am
		}
		ai, bi := tierIndex(a.Tier), tierIndex(b.Tier)
		if ai != bi {
			return ai < bi
		}
		if a.CostPer1MInput != b.CostPer1MInput {
			return a.CostPer1MInput < b.CostPer1MInput
		}
		return a.ModelID < b.ModelID
	})
	return candidates[0], true
}

// FallbackChain returns models to try when the primary fails: same-tier
// models from other providers first, then the default of the next lower
// tier.
func (r *ModelRegistry) FallbackChain(primaryID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	primary, ok := r.models[primaryID]
	if !ok {
		return nil
	}

	var fallbacks []string
	var sameTier []string
	for _, m := range r.models {
		if m.ModelID != primaryID && m.Tier == primary.Tier && m.Provider != primary.Provider {
			sameTier = append(sameTier, m.ModelID)
		}
	}
	sort.Strings(sameTier)
	fallbacks = append(fallbacks, sameTier...)

	if idx := tierIndex(primary.Tier); idx > 0 {
		lower := tierOrder[idx-1]
		if def, ok := r.defaultByTier[lower]; ok {
			fallbacks = append(fallbacks, def)
		}
	}
	return fallbacks
}

// History returns audit events for a model id, oldest first.
func (r *ModelRegistry) History(modelID string) []AuditEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []AuditEvent
	for _, e := range r.history {
		if e.Name == modelID {
			out = append(out, e)
		}
	}
	return out
}

// List returns all registered models sorted by id.
func (r *ModelRegistry) List() []ModelConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ModelConfig, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelID < out[j].ModelID })
	return out
}

func (r *ModelRegistry) logEvent(action, modelID, detail string) {
	e := AuditEvent{Action: action, Name: modelID, Version: detail, Timestamp: time.Now().UTC()}
	r.history = append(r.history, e)
	if r.sink != nil {
		err := r.sink.AppendAudit(store.AuditEntry{
			Registry:  "model",
			Action:    action,
			Target:    modelID,
			Details:   map[string]interface{}{"detail": detail},
			Timestamp: e.Timestamp,
		})
		if err != nil {
			r.log.Warn("audit sink write failed for %s: %v", modelID, err)
		}
	}
}
