package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Astemirdum/elibrary-service/pkg/metrics"
)

// OverdueSweeper periodically persists the overdue status of loans past due.
type OverdueSweeper struct {
	store    OverdueMarker
	interval time.Duration
	metrics  *metrics.Circulation
	log      *zap.Logger
}

func NewOverdueSweeper(store OverdueMarker, interval time.Duration, m *metrics.Circulation, log *zap.Logger) *OverdueSweeper {
	return &OverdueSweeper{
		store:    store,
		interval: interval,
		metrics:  m,
		log:      log.Named("sweeper"),
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
// A non-positive interval disables sweeping.
func (s *OverdueSweeper) Run(ctx context.Context) error {
	if s.interval <= 0 {
		s.log.Info("overdue sweeper disabled")
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
			s.log.Error("sweep", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (s *OverdueSweeper) Sweep(ctx context.Context) (int64, error) {
	n, err := s.store.MarkOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.Info("loans marked overdue", zap.Int64("count", n))
	}
	s.metrics.AddOverdue(n)
	return n, nil
}
