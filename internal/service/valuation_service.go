package service

import (
	"context"
	"sort"
	"time"

	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/domain"
	"github.com/NewtonHatesApples/FindUrCapitalKrooker/internal/utils"
)

// ValuationService derives point-in-time portfolio values by replaying the
// transaction log. It only ever reads an account; the live Book is never
// touched, so a valuation can run concurrently with trading.
type ValuationService struct {
	market domain.MarketDataService
}

// NewValuationService creates a new ValuationService
func NewValuationService(market domain.MarketDataService) *ValuationService {
	return &ValuationService{market: market}
}

// TimelineEntry is one day of the account's value history.
type TimelineEntry struct {
	Day    string  `json:"day"`
	Value  float64 `json:"value"`
	Change float64 `json:"change"`
}

// ValueAsOf reconstructs the account as of the end of the given calendar day
// and marks every surviving position to its historical close. Replay starts
// from the initial balance with no positions and applies each transaction
// dated on or before the day, in timestamp order with insertion order
// breaking ties — the same rules the executor and monitor use, via
// Book.Apply. When no close is obtainable a position is marked at its own
// average price rather than fabricating a gain or loss.
func (s *ValuationService) ValueAsOf(ctx context.Context, account *domain.Account, day time.Time) float64 {
	book := s.replayThrough(account, day)

	value := book.Balance
	for _, pos := range book.OpenPositions() {
		price, err := s.market.HistoricalClose(ctx, pos.Symbol, utils.EndOfDay(day))
		if err != nil {
			price = pos.AvgPrice
		}
		value += pos.MarkValue(price)
	}
	return value
}

// HistoryTimeline walks every calendar day from account creation through
// today and values the account at each. Daily change is measured against the
// previous day's value, starting from the initial balance. Cost is
// O(days x transactions); fine for a session-scale simulator.
func (s *ValuationService) HistoryTimeline(ctx context.Context, account *domain.Account) []TimelineEntry {
	today := utils.DayOf(time.Now())
	previous := account.InitialBalance

	var entries []TimelineEntry
	for day := utils.DayOf(account.CreatedAt); !day.After(today); day = utils.NextDay(day) {
		value := s.ValueAsOf(ctx, account, day)

		change := 0.0
		if previous > 0 {
			change = (value/previous - 1) * 100
		}
		entries = append(entries, TimelineEntry{
			Day:    day.Format("2006-01-02"),
			Value:  value,
			Change: change,
		})
		previous = value
	}
	return entries
}

func (s *ValuationService) replayThrough(account *domain.Account, day time.Time) domain.Book {
	ordered := make([]domain.Transaction, len(account.Transactions))
	copy(ordered, account.Transactions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExecutedAt.Before(ordered[j].ExecutedAt)
	})

	book := domain.NewBook(account.InitialBalance)
	for _, tx := range ordered {
		if !utils.OnOrBeforeDay(tx.ExecutedAt, day) {
			break
		}
		book.Apply(tx)
	}
	return book
}
