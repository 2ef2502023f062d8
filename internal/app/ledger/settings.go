package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// Seed ensures the reserved HQ zone and the settings singleton exist. It
// is safe to call on every start.
func (s *Service) Seed(ctx context.Context) error {
	return s.store.Update(ctx, func(tx domain.Tx) error {
		hq, err := tx.GetZone(domain.HQZoneID)
		if err != nil {
			return err
		}
		switch {
		case hq == nil:
			err = tx.PutZone(domain.Zone{
				ID:        domain.HQZoneID,
				Name:      domain.HQZoneName,
				Kind:      domain.ZoneAsset,
				CreatedAt: s.clock(),
			})
		case hq.Name != domain.HQZoneName:
			hq.Name = domain.HQZoneName
			err = tx.PutZone(*hq)
		}
		if err != nil {
			return err
		}

		st, err := tx.GetSettings()
		if err != nil {
			return err
		}
		if st == nil {
			return tx.PutSettings(domain.DefaultSettings(s.defaultTZ))
		}
		return nil
	})
}

// Settings returns the stored settings, or defaults before the first write.
func (s *Service) Settings(ctx context.Context) (domain.Settings, error) {
	var out domain.Settings
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		out, err = s.settingsIn(tx)
		return err
	})
	return out, err
}

// UpdateSettings applies patch after validating the resulting settings.
func (s *Service) UpdateSettings(ctx context.Context, patch domain.SettingsPatch) (domain.Settings, error) {
	var out domain.Settings
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		var err error
		out, err = s.applySettings(tx, patch)
		return err
	})
	return out, err
}

func (s *Service) applySettings(tx domain.Tx, patch domain.SettingsPatch) (domain.Settings, error) {
	cur, err := s.settingsIn(tx)
	if err != nil {
		return domain.Settings{}, err
	}
	next := patch.Apply(cur)
	if err := validateSettings(next); err != nil {
		return domain.Settings{}, err
	}
	if patch.ActiveQuestID != nil && next.ActiveQuestID != "" {
		q, err := tx.GetQuest(next.ActiveQuestID)
		if err != nil {
			return domain.Settings{}, err
		}
		if q == nil {
			return domain.Settings{}, fmt.Errorf("quest %s: %w", next.ActiveQuestID, domain.ErrNotFound)
		}
	}
	if err := tx.PutSettings(next); err != nil {
		return domain.Settings{}, err
	}
	return next, nil
}

func validateSettings(st domain.Settings) error {
	switch {
	case st.MonthlyIncome != nil && *st.MonthlyIncome < 0:
		return fmt.Errorf("monthly income must not be negative: %w", domain.ErrInvalidInput)
	case st.MonthlyCap < 0:
		return fmt.Errorf("monthly cap must not be negative: %w", domain.ErrInvalidInput)
	case st.HoursPerWeek <= 0:
		return fmt.Errorf("hours per week must be positive: %w", domain.ErrInvalidInput)
	case st.SalaryDay < 1 || st.SalaryDay > 31:
		return fmt.Errorf("salary day %d: %w", st.SalaryDay, domain.ErrInvalidInput)
	case st.SelfReportedDebt != nil && *st.SelfReportedDebt < 0:
		return fmt.Errorf("self-reported debt must not be negative: %w", domain.ErrInvalidInput)
	}
	if _, err := time.LoadLocation(st.Timezone); err != nil || st.Timezone == "" {
		return fmt.Errorf("timezone %q: %w", st.Timezone, domain.ErrInvalidInput)
	}
	return nil
}

// OnboardingInput finishes first-run setup: the settings answers plus the
// quest the user picked, if any.
type OnboardingInput struct {
	Settings domain.SettingsPatch
	Quest    *domain.Quest
}

// CompleteOnboarding stores the answers, creates the chosen quest, makes it
// active and stamps the completion time.
func (s *Service) CompleteOnboarding(ctx context.Context, in OnboardingInput) (domain.Settings, error) {
	var out domain.Settings
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		now := s.clock()
		patch := in.Settings
		if in.Quest != nil {
			q := *in.Quest
			if q.ID == "" {
				q.ID = newID("qst")
			}
			q.Name = strings.TrimSpace(q.Name)
			if q.Name == "" || q.TargetAmount < 0 {
				return fmt.Errorf("quest: %w", domain.ErrInvalidInput)
			}
			q.CreatedAt = now
			if err := tx.PutQuest(q); err != nil {
				return err
			}
			patch.ActiveQuestID = &q.ID
		}
		patch.OnboardingCompletedAt = &now

		var err error
		out, err = s.applySettings(tx, patch)
		return err
	})
	return out, err
}

// ListQuests returns every quest, oldest first.
func (s *Service) ListQuests(ctx context.Context) ([]domain.Quest, error) {
	var out []domain.Quest
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		out, err = tx.ListQuests()
		return err
	})
	return out, err
}

// CreateZone adds a user zone.
func (s *Service) CreateZone(ctx context.Context, name string, kind domain.ZoneKind) (domain.Zone, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Zone{}, fmt.Errorf("zone name required: %w", domain.ErrInvalidInput)
	}
	if kind == "" {
		kind = domain.ZoneAsset
	}
	if !kind.Valid() {
		return domain.Zone{}, fmt.Errorf("zone kind %q: %w", kind, domain.ErrInvalidInput)
	}
	z := domain.Zone{ID: newID("zone"), Name: name, Kind: kind, CreatedAt: s.clock()}
	err := s.store.Update(ctx, func(tx domain.Tx) error {
		return tx.PutZone(z)
	})
	if err != nil {
		return domain.Zone{}, err
	}
	return z, nil
}

// ListZones returns every zone, oldest first.
func (s *Service) ListZones(ctx context.Context) ([]domain.Zone, error) {
	var out []domain.Zone
	err := s.store.View(ctx, func(tx domain.Tx) error {
		var err error
		out, err = tx.ListZones()
		return err
	})
	return out, err
}
