package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/infra"
)

// StopMonitorService sweeps every account's stop-bearing positions and
// auto-closes the ones whose stop-loss or stop-profit level is breached.
// The same service replays missed sweeps after downtime (CatchUp), driving
// the identical trigger logic against historical closes instead of live
// prices.
type StopMonitorService struct {
	accounts  domain.AccountRepository
	watermark domain.WatermarkRepository
	market    domain.MarketDataService
	locks     *infra.AccountLocks
	interval  time.Duration

	now func() time.Time
}

// NewStopMonitorService creates a new StopMonitorService
func NewStopMonitorService(
	accounts domain.AccountRepository,
	watermark domain.WatermarkRepository,
	market domain.MarketDataService,
	locks *infra.AccountLocks,
	interval time.Duration,
) *StopMonitorService {
	return &StopMonitorService{
		accounts:  accounts,
		watermark: watermark,
		market:    market,
		locks:     locks,
		interval:  interval,
		now:       time.Now,
	}
}

// CheckPositions performs one live sweep. Prices are fetched once per symbol
// and reused across accounts. A single symbol's price failure skips only the
// positions holding it; the rest of the sweep continues. The watermark is
// written after the sweep completes, with the sweep's start time, so a slow
// sweep cannot leave an uncovered gap.
func (s *StopMonitorService) CheckPositions(ctx context.Context) error {
	sweepStart := s.now()

	ids, err := s.accounts.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}

	prices := make(map[string]float64)
	failed := make(map[string]bool)
	complete := true

	for _, id := range ids {
		account, err := s.accounts.GetByID(ctx, id)
		if err != nil {
			log.Printf("ERROR: Failed to load account %s: %v", id, err)
			complete = false
			continue
		}

		for _, pos := range account.OpenPositions() {
			if !pos.HasStops() {
				continue
			}

			price, ok := s.livePrice(ctx, pos.Symbol, prices, failed)
			if !ok {
				continue
			}

			if _, hit := pos.Triggered(price); hit {
				if err := s.closeTriggered(ctx, id, pos.Side, pos.Symbol, price, s.now()); err != nil {
					log.Printf("ERROR: Failed to auto-close %s %s for account %s: %v", pos.Side, pos.Symbol, id, err)
					complete = false
				}
			}
		}
	}

	if !complete {
		log.Printf("[WARN] Sweep incomplete, watermark not advanced (will be re-covered by catch-up)")
		return nil
	}

	if err := s.watermark.SetLastCheck(ctx, sweepStart); err != nil {
		return fmt.Errorf("failed to record watermark: %w", err)
	}
	return nil
}

// CatchUp replays every monitoring tick that should have fired while the
// process was down: lastCheck+interval, +2*interval, ... strictly before
// now, in increasing order, each evaluated against the historical close at
// that boundary. Triggered closes are stamped with the boundary time, so
// valuation-by-replay for past days is unaffected by when the server noticed
// the breach. Runs once at startup, before the first live sweep and before
// trading opens. Rerunning a gap is a no-op: a triggered close deleted its
// position, so the second pass finds nothing to close.
func (s *StopMonitorService) CatchUp(ctx context.Context) error {
	last, ok, err := s.watermark.LastCheck(ctx)
	if err != nil {
		return fmt.Errorf("failed to read watermark: %w", err)
	}
	if !ok {
		log.Println("[OK] No watermark found, skipping catch-up (first run)")
		return nil
	}

	now := s.now()
	var boundaries []time.Time
	for t := last.Add(s.interval); t.Before(now); t = t.Add(s.interval) {
		boundaries = append(boundaries, t)
	}
	if len(boundaries) == 0 {
		return nil
	}

	log.Printf("Catching up %d missed monitoring interval(s) since %s", len(boundaries), last.Format(time.RFC3339))

	complete := true
	for _, boundary := range boundaries {
		ids, err := s.accounts.ListIDs(ctx)
		if err != nil {
			return fmt.Errorf("failed to list accounts: %w", err)
		}

		for _, id := range ids {
			account, err := s.accounts.GetByID(ctx, id)
			if err != nil {
				log.Printf("ERROR: Failed to load account %s: %v", id, err)
				complete = false
				continue
			}

			for _, pos := range account.OpenPositions() {
				if !pos.HasStops() {
					continue
				}

				// No historical close means "did not trigger this
				// interval" — never guess a price.
				price, err := s.market.HistoricalClose(ctx, pos.Symbol, boundary)
				if err != nil {
					continue
				}

				if _, hit := pos.Triggered(price); hit {
					if err := s.closeTriggered(ctx, id, pos.Side, pos.Symbol, price, boundary); err != nil {
						log.Printf("ERROR: Failed to apply catch-up close %s %s for account %s: %v", pos.Side, pos.Symbol, id, err)
						complete = false
					}
				}
			}
		}
	}

	if !complete {
		log.Printf("[WARN] Catch-up incomplete, watermark not advanced")
		return nil
	}

	if err := s.watermark.SetLastCheck(ctx, boundaries[len(boundaries)-1]); err != nil {
		return fmt.Errorf("failed to record watermark: %w", err)
	}

	log.Printf("[OK] Catch-up complete through %s", boundaries[len(boundaries)-1].Format(time.RFC3339))
	return nil
}

// closeTriggered performs the automatic close for one (account, side,
// symbol) at the triggering price. The account lock is taken here, after
// the price fetch; the position is re-read and re-evaluated under the lock
// because a manual sell/cover may have raced us. A vanished or no longer
// triggered position is a benign no-op.
func (s *StopMonitorService) closeTriggered(ctx context.Context, accountID uuid.UUID, side domain.Side, symbol string, price float64, at time.Time) error {
	unlock := s.locks.Lock(accountID)
	defer unlock()

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("failed to reload account: %w", err)
	}

	pos, ok := account.Position(side, symbol)
	if !ok {
		return nil
	}
	action, hit := pos.Triggered(price)
	if !hit {
		return nil
	}

	commission := account.Commission(pos.Amount, price)
	amount, ok := account.Close(side, symbol, price, commission)
	if !ok {
		return nil
	}
	tx := account.Record(action, symbol, amount, price, commission, at)

	if err := s.accounts.Save(ctx, account, []domain.Transaction{tx}); err != nil {
		return fmt.Errorf("failed to persist auto-close: %w", err)
	}

	log.Printf("[OK] Auto-closed %s %s x%d @ %.4f for account %s (%s)", side, symbol, amount, price, accountID, action)
	return nil
}

func (s *StopMonitorService) livePrice(ctx context.Context, symbol string, prices map[string]float64, failed map[string]bool) (float64, bool) {
	if price, ok := prices[symbol]; ok {
		return price, true
	}
	if failed[symbol] {
		return 0, false
	}

	price, err := s.market.CurrentPrice(ctx, symbol)
	if err != nil {
		log.Printf("[WARN] Price unavailable for %s, skipping this sweep: %v", symbol, err)
		failed[symbol] = true
		return 0, false
	}
	prices[symbol] = price
	return price, true
}
