package registry

import (
	"sync"
	"time"

	"resumeiq/internal/config"
	"resumeiq/internal/logging"
	"resumeiq/internal/store"
	"resumeiq/internal/types"
)

// PromptRegistry holds versioned prompts. Registered versions are
// immutable; lifecycle transitions replace the stored value. Mutations on
// the same prompt name are serialized with fail-fast semantics: a second
// concurrent mutation is rejected, not queued.
type PromptRegistry struct {
	mu       sync.RWMutex
	versions map[string]map[string]PromptVersion // name -> version -> prompt
	prod     map[string]string                   // name -> production version
	history  []AuditEvent

	inflightMu sync.Mutex
	inflight   map[string]bool

	policy config.PolicyConfig
	sink   *store.Store // optional durable audit sink
	log    *logging.Logger
}

// NewPromptRegistry builds an empty registry governed by the given policy.
func NewPromptRegistry(policy config.PolicyConfig) *PromptRegistry {
	return &PromptRegistry{
		versions: make(map[string]map[string]PromptVersion),
		prod:     make(map[string]string),
		inflight: make(map[string]bool),
		policy:   policy,
		log:      logging.Get(logging.CategoryRegistry),
	}
}

// WithAuditStore attaches a durable audit sink. Audit events are kept in
// memory regardless; the store adds durability across restarts.
func (r *PromptRegistry) WithAuditStore(s *store.Store) *PromptRegistry {
	r.sink = s
	return r
}

// acquire claims the mutation slot for a prompt name.
func (r *PromptRegistry) acquire(name string) error {
	r.inflightMu.Lock()
	defer r.inflightMu.Unlock()
	if r.inflight[name] {
		return &types.ConcurrentModificationError{Registry: "prompt", ID: name}
	}
	r.inflight[name] = true
	return nil
}

func (r *PromptRegistry) release(name string) {
	r.inflightMu.Lock()
	delete(r.inflight, name)
	r.inflightMu.Unlock()
}

// Register adds a new prompt version. Duplicate (name, version) pairs are
// rejected; registered content is never overwritten.
func (r *PromptRegistry) Register(p PromptVersion) error {
	if p.Name == "" {
		return types.NewValidationError("name", "required")
	}
	if p.Version == "" {
		return types.NewValidationError("version", "required")
	}
	if err := r.acquire(p.Name); err != nil {
		return err
	}
	defer r.release(p.Name)

	r.mu.Lock()
	defer r.mu.Unlock()

	// A duplicate registration is a conflicting write on an existing
	// record, not malformed input.
	if _, exists := r.versions[p.Name][p.Version]; exists {
		return &types.ConcurrentModificationError{Registry: "prompt", ID: p.Name + "@" + p.Version}
	}
	if r.versions[p.Name] == nil {
		r.versions[p.Name] = make(map[string]PromptVersion)
	}
	r.versions[p.Name][p.Version] = p
	r.logEvent("register", p.Name, p.Version)
	return nil
}

// Promote moves a version to production. The quality and safety gates
// apply whenever the version carries scores. The previous production
// version, if any, is deprecated.
func (r *PromptRegistry) Promote(name, version string) error {
	if err := r.acquire(name); err != nil {
		return err
	}
	defer r.release(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.versions[name][version]
	if !ok {
		return types.NewValidationError("version", "unknown version "+version+" for "+name)
	}

	if p.QualityScore >= 0 && p.QualityScore < r.policy.QualityThreshold {
		return &types.ThresholdNotMet{
			Gate: "quality", Target: name + "@" + version,
			Actual: p.QualityScore, Required: r.policy.QualityThreshold, Direction: "min",
		}
	}
	if p.SafetyScore >= 0 && p.SafetyScore < r.policy.SafetyThreshold {
		return &types.ThresholdNotMet{
			Gate: "safety", Target: name + "@" + version,
			Actual: p.SafetyScore, Required: r.policy.SafetyThreshold, Direction: "min",
		}
	}

	if old, ok := r.prod[name]; ok && old != version {
		demoted := r.versions[name][old]
		demoted.Status = StatusDeprecated
		r.versions[name][old] = demoted
	}

	p.Status = StatusProduction
	p.PromotedAt = time.Now().UTC()
	r.versions[name][version] = p
	r.prod[name] = version

	r.logEvent("promote", name, version)
	r.log.Info("promoted %s@%s to production", name, version)
	return nil
}

// Rollback restores the previous production version, marking the current
// one rolled_back. With toVersion empty, the predecessor is found by
// scanning the audit history newest-first for the last promote event that
// is not the current production version.
func (r *PromptRegistry) Rollback(name, toVersion string) (string, error) {
	if err := r.acquire(name); err != nil {
		return "", err
	}
	defer r.release(name)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.versions[name]; !ok {
		return "", types.NewValidationError("name", "unknown prompt "+name)
	}

	if toVersion == "" {
		toVersion = r.findPreviousProduction(name)
		if toVersion == "" {
			return "", types.NewValidationError("version", "no previous production version found for "+name)
		}
	}
	target, ok := r.versions[name][toVersion]
	if !ok {
		return "", types.NewValidationError("version", "unknown version "+toVersion+" for "+name)
	}

	if current, ok := r.prod[name]; ok && current != toVersion {
		rolled := r.versions[name][current]
		rolled.Status = StatusRolledBack
		r.versions[name][current] = rolled
	}

	target.Status = StatusProduction
	r.versions[name][toVersion] = target
	r.prod[name] = toVersion

	r.logEvent("rollback", name, toVersion)
	r.log.Info("rolled back %s to %s", name, toVersion)
	return toVersion, nil
}

func (r *PromptRegistry) findPreviousProduction(name string) string {
	current := r.prod[name]
	for i := len(r.history) - 1; i >= 0; i-- {
		e := r.history[i]
		if e.Name == name && e.Action == "promote" && e.Version != current {
			return e.Version
		}
	}
	return ""
}

// Production returns the current production version of a prompt.
func (r *PromptRegistry) Production(name string) (PromptVersion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	version, ok := r.prod[name]
	if !ok {
		return PromptVersion{}, false
	}
	p, ok := r.versions[name][version]
	return p, ok
}

// Get returns a specific version of a prompt.
func (r *PromptRegistry) Get(name, version string) (PromptVersion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.versions[name][version]
	return p, ok
}

// ListVersions returns all versions of a prompt, in no particular order.
func (r *PromptRegistry) ListVersions(name string) []PromptVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PromptVersion
	for _, p := range r.versions[name] {
		out = append(out, p)
	}
	return out
}

// Names returns all registered prompt names.
func (r *PromptRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.versions))
	for name := range r.versions {
		names = append(names, name)
	}
	return names
}

// History returns audit events for a prompt, oldest first.
func (r *PromptRegistry) History(name string) []AuditEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []AuditEvent
	for _, e := range r.history {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// logEvent appends to the in-memory trail and the durable sink.
// Callers hold r.mu.
func (r *PromptRegistry) logEvent(action, name, version string) {
	e := AuditEvent{Action: action, Name: name, Version: version, Timestamp: time.Now().UTC()}
	r.history = append(r.history, e)

	if r.sink != nil {
		err := r.sink.AppendAudit(store.AuditEntry{
			Registry:  "prompt",
			Action:    action,
			Target:    name,
			Details:   map[string]interface{}{"version": version},
			Timestamp: e.Timestamp,
		})
		if err != nil {
			r.log.Warn("audit sink write failed for %s@%s: %v", name, version, err)
		}
	}
}
