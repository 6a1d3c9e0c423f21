package dialogue

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/courier-life/internal/entropy"
	"github.com/talgya/courier-life/internal/order"
	"github.com/talgya/courier-life/internal/player"
)

// Mode selects between the static catalog and the external provider.
type Mode uint8

const (
	ModeOffline Mode = iota
	ModeOnline
)

func (m Mode) String() string {
	if m == ModeOnline {
		return "online"
	}
	return "offline"
}

// ProviderContext is the situation handed to an external response provider.
type ProviderContext struct {
	CustomerType          player.CustomerType
	OrderPriority         order.Priority
	District              player.District
	Trigger               Trigger
	EmotionalIntelligence int
	PlayerLevel           int
}

// Provider generates response options online. Implementations may block on
// the network; the resolver must not hold the state lock across a call.
type Provider interface {
	GenerateOptions(ctx ProviderContext) ([]Option, error)
}

// Interaction is the resolved exchange returned to the caller. The effect is
// reported, not applied; the engine owns state mutation.
type Interaction struct {
	CustomerResponse string   `json:"customer_response"`
	Chosen           Option   `json:"chosen"`
	Offered          []Option `json:"offered"`
	FromProvider     bool     `json:"from_provider"`
}

// HistoryRecord is an append-only log row per interaction, used for the
// per-customer-type success-rate analysis.
type HistoryRecord struct {
	ID           string              `json:"id"`
	Timestamp    time.Time           `json:"timestamp"`
	CustomerType player.CustomerType `json:"customer_type"`
	Trigger      Trigger             `json:"trigger"`
	PlayerLine   string              `json:"player_line"`
	Response     string              `json:"response"`
	CreditDelta  int                 `json:"credit_delta"`
}

// PatternStats aggregates interaction outcomes for one customer type.
type PatternStats struct {
	Total       int     `json:"total"`
	Positive    int     `json:"positive"`
	SuccessRate float64 `json:"success_rate"`
}

var neutralOption = Option{Text: "Okay, here you go.", Effect: Effect{}}

const neutralResponse = "Alright, thanks."

// Resolver picks responses in either mode and keeps the interaction log.
type Resolver struct {
	catalog  *Catalog
	provider Provider
	rng      entropy.Source
	mode     Mode

	history []HistoryRecord
}

// NewResolver creates a resolver over the given catalog. provider may be nil
// for offline-only sessions.
func NewResolver(catalog *Catalog, provider Provider, rng entropy.Source) *Resolver {
	return &Resolver{
		catalog:  catalog,
		provider: provider,
		rng:      rng,
		mode:     ModeOffline,
	}
}

// SetMode switches between offline and online dialogue. Online without a
// provider silently behaves as offline.
func (r *Resolver) SetMode(m Mode) {
	r.mode = m
}

// Mode returns the active dialogue mode.
func (r *Resolver) Mode() Mode {
	return r.mode
}

// Online reports whether interactions will consult the provider. Callers
// that cannot afford to block inside a lock should check this, fetch options
// with FetchOptions unlocked, and finish with InteractProvided.
func (r *Resolver) Online() bool {
	return r.mode == ModeOnline && r.provider != nil
}

// Interact resolves one exchange. chosenIndex selects from the offered
// option set; pass a negative index in unattended contexts and the resolver
// picks uniformly at random instead. In online mode this blocks on the
// provider; lock-holding callers should use the split
// ProviderRequest/FetchOptions/InteractProvided path instead.
func (r *Resolver) Interact(o *order.Order, trigger Trigger, attrs *player.Attributes, now time.Time, chosenIndex int) *Interaction {
	if r.Online() {
		opts, err := r.FetchOptions(r.ProviderRequest(o, trigger, attrs))
		return r.InteractProvided(o, trigger, now, chosenIndex, opts, err)
	}
	it := r.offline(o, trigger, attrs, chosenIndex)
	r.record(o, trigger, now, it)
	return it
}

// ProviderRequest snapshots the situation handed to the provider. The caller
// takes the snapshot while it still owns the player state.
func (r *Resolver) ProviderRequest(o *order.Order, trigger Trigger, attrs *player.Attributes) ProviderContext {
	return ProviderContext{
		CustomerType:          o.CustomerType,
		OrderPriority:         o.Priority,
		District:              o.DeliveryDistrict,
		Trigger:               trigger,
		EmotionalIntelligence: attrs.Skill(player.SkillEmotionalIntelligence),
		PlayerLevel:           attrs.Level,
	}
}

// FetchOptions asks the provider for response options. It reads no mutable
// resolver state, so it is safe to call without any lock held.
func (r *Resolver) FetchOptions(req ProviderContext) ([]Option, error) {
	return r.provider.GenerateOptions(req)
}

// InteractProvided finishes an exchange from options fetched earlier. A fetch
// error or an empty set degrades to the neutral exchange.
func (r *Resolver) InteractProvided(o *order.Order, trigger Trigger, now time.Time, chosenIndex int, opts []Option, err error) *Interaction {
	var it *Interaction
	if err != nil || len(opts) == 0 {
		// Provider trouble never reaches the caller.
		slog.Warn("dialogue provider unavailable, using neutral response", "error", err)
		it = &Interaction{
			CustomerResponse: neutralResponse,
			Chosen:           neutralOption,
			Offered:          []Option{neutralOption},
		}
	} else {
		it = &Interaction{
			CustomerResponse: neutralResponse,
			Chosen:           pick(r.rng, opts, chosenIndex),
			Offered:          opts,
			FromProvider:     true,
		}
	}
	r.record(o, trigger, now, it)
	return it
}

func (r *Resolver) record(o *order.Order, trigger Trigger, now time.Time, it *Interaction) {
	r.history = append(r.history, HistoryRecord{
		ID:           uuid.NewString(),
		Timestamp:    now,
		CustomerType: o.CustomerType,
		Trigger:      trigger,
		PlayerLine:   it.Chosen.Text,
		Response:     it.CustomerResponse,
		CreditDelta:  it.Chosen.Effect.CreditDelta,
	})
}

// OfferedOptions returns the gate-filtered option set for a pending
// interaction without resolving it, so an interactive caller can present the
// choice before committing.
func (r *Resolver) OfferedOptions(o *order.Order, trigger Trigger, attrs *player.Attributes) []Option {
	entry := r.catalog.Find(o.CustomerType, trigger)
	if entry == nil {
		return []Option{neutralOption}
	}
	return eligibleOptions(entry, attrs)
}

func (r *Resolver) offline(o *order.Order, trigger Trigger, attrs *player.Attributes, chosenIndex int) *Interaction {
	entry := r.catalog.Find(o.CustomerType, trigger)
	if entry == nil {
		return &Interaction{
			CustomerResponse: neutralResponse,
			Chosen:           neutralOption,
			Offered:          []Option{neutralOption},
		}
	}

	offered := eligibleOptions(entry, attrs)
	chosen := pick(r.rng, offered, chosenIndex)
	response := entry.Responses[r.rng.Intn(len(entry.Responses))]

	return &Interaction{
		CustomerResponse: response,
		Chosen:           chosen,
		Offered:          offered,
	}
}

// eligibleOptions filters by attribute gates, falling back to the full set
// when nothing passes so the interaction never blocks.
func eligibleOptions(entry *Entry, attrs *player.Attributes) []Option {
	var eligible []Option
	for _, opt := range entry.Options {
		if attrs.MeetsAll(opt.Requires) {
			eligible = append(eligible, opt)
		}
	}
	if len(eligible) == 0 {
		eligible = append(eligible, entry.Options...)
	}
	return eligible
}

func pick(rng entropy.Source, opts []Option, chosenIndex int) Option {
	if chosenIndex >= 0 && chosenIndex < len(opts) {
		return opts[chosenIndex]
	}
	return opts[rng.Intn(len(opts))]
}

// History returns the most recent limit interaction records.
func (r *Resolver) History(limit int) []HistoryRecord {
	if limit <= 0 || limit > len(r.history) {
		limit = len(r.history)
	}
	out := make([]HistoryRecord, limit)
	copy(out, r.history[len(r.history)-limit:])
	return out
}

// RestoreHistory seeds the log from persisted records.
func (r *Resolver) RestoreHistory(records []HistoryRecord) {
	r.history = append([]HistoryRecord{}, records...)
}

// AnalyzePatterns computes per-customer-type interaction success rates. An
// interaction counts as positive when its credit effect was positive.
func (r *Resolver) AnalyzePatterns() map[player.CustomerType]PatternStats {
	stats := make(map[player.CustomerType]PatternStats)
	for _, rec := range r.history {
		s := stats[rec.CustomerType]
		s.Total++
		if rec.CreditDelta > 0 {
			s.Positive++
		}
		stats[rec.CustomerType] = s
	}
	for ct, s := range stats {
		if s.Total > 0 {
			s.SuccessRate = float64(s.Positive) / float64(s.Total)
		}
		stats[ct] = s
	}
	return stats
}
