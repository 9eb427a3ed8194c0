package cleanup

import (
	"time"

	"market-backend/internal/repository"
	"market-backend/pkg/logger"

	"go.uber.org/zap"
)

// CleanupService periodically removes expired password reset tokens and
// pending orders that were never paid.
type CleanupService struct {
	userRepo   *repository.UserRepository
	orderRepo  *repository.OrderRepository
	interval   time.Duration
	pendingTTL time.Duration
	stopChan   chan bool
}

func NewCleanupService(userRepo *repository.UserRepository, orderRepo *repository.OrderRepository, interval time.Duration) *CleanupService {
	return &CleanupService{
		userRepo:   userRepo,
		orderRepo:  orderRepo,
		interval:   interval,
		pendingTTL: 48 * time.Hour,
		stopChan:   make(chan bool),
	}
}

// Start begins the cleanup loop. It runs once immediately, then on the
// configured interval.
func (s *CleanupService) Start() {
	logger.Logger().Info("starting cleanup service", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopChan:
			logger.Logger().Info("stopping cleanup service")
			return
		}
	}
}

// Stop stops the cleanup service
func (s *CleanupService) Stop() {
	s.stopChan <- true
}

func (s *CleanupService) runOnce() {
	s.cleanupExpiredTokens()
	s.cleanupStaleOrders()
}

func (s *CleanupService) cleanupExpiredTokens() {
	count, err := s.userRepo.CleanupExpiredResetTokens()
	if err != nil {
		logger.Logger().Error("failed to clean up expired reset tokens", zap.Error(err))
		return
	}

	if count > 0 {
		logger.Logger().Info("cleaned up expired password reset tokens", zap.Int64("count", count))
	}
}

func (s *CleanupService) cleanupStaleOrders() {
	cutoff := time.Now().Add(-s.pendingTTL)
	count, err := s.orderRepo.DeleteStalePending(cutoff)
	if err != nil {
		logger.Logger().Error("failed to clean up stale pending orders", zap.Error(err))
		return
	}

	if count > 0 {
		logger.Logger().Info("cleaned up stale pending orders", zap.Int64("count", count))
	}
}
