// Package ledger implements Cadencio's mutating commands: transactions and
// transfers, obligation scheduling and confirmation, borrow recording, and
// the activity/undo log. Every command runs inside one Store.Update so a
// failure leaves no partial write behind.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cadencio-app/cadencio/internal/app/planner"
	"github.com/cadencio-app/cadencio/internal/domain"
	"github.com/cadencio-app/cadencio/internal/infra/observability"
	"github.com/cadencio-app/cadencio/internal/logger"
)

// Service runs ledger commands against a Store.
type Service struct {
	store     domain.Store
	now       func() time.Time
	policy    planner.Policy
	tracer    *observability.Tracer
	defaultTZ string
	log       *zap.SugaredLogger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPolicy overrides the plan synthesizer policy.
func WithPolicy(p planner.Policy) Option {
	return func(s *Service) { s.policy = p }
}

// WithTracer records a span per command.
func WithTracer(t *observability.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithDefaultTimezone sets the timezone used before settings exist.
func WithDefaultTimezone(tz string) Option {
	return func(s *Service) { s.defaultTZ = tz }
}

// New creates a ledger service.
func New(store domain.Store, opts ...Option) *Service {
	s := &Service{
		store:     store,
		now:       time.Now,
		policy:    planner.DefaultPolicy(),
		defaultTZ: "UTC",
		log:       logger.GetLogger().Named("ledger"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() domain.Store { return s.store }

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.clock() }

// DefaultTimezone is the zone used until settings are stored.
func (s *Service) DefaultTimezone() string { return s.defaultTZ }

// clock returns the current time at the store's millisecond resolution.
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func newID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// settingsIn reads settings inside tx, falling back to defaults.
func (s *Service) settingsIn(tx domain.Tx) (domain.Settings, error) {
	st, err := tx.GetSettings()
	if err != nil {
		return domain.Settings{}, err
	}
	if st == nil {
		return domain.DefaultSettings(s.defaultTZ), nil
	}
	return *st, nil
}

// ─── Amounts ────────────────────────────────────────────────────────────────

// RoundAmount rounds d half away from zero to minor units and rejects
// anything that is not positive afterwards.
func RoundAmount(d decimal.Decimal) (int64, error) {
	v := d.Round(0)
	if !v.IsPositive() {
		return 0, fmt.Errorf("amount %s: %w", d.String(), domain.ErrInvalidAmount)
	}
	return v.IntPart(), nil
}

// ParseAmount parses user input such as "1500000", "1_500_000" or
// "1,500,000.4" into minor units.
func ParseAmount(s string) (int64, error) {
	d, err := ParseDecimal(s)
	if err != nil {
		return 0, err
	}
	return RoundAmount(d)
}

// ParseDecimal parses s with separators stripped, without rounding.
func ParseDecimal(s string) (decimal.Decimal, error) {
	clean := strings.NewReplacer(",", "", "_", "", " ", "").Replace(strings.TrimSpace(s))
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, domain.ErrInvalidAmount)
	}
	return d, nil
}

func validAmount(v int64) error {
	if v <= 0 {
		return fmt.Errorf("amount %d: %w", v, domain.ErrInvalidAmount)
	}
	return nil
}
