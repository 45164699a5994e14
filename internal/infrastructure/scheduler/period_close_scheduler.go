package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	billingapp "github.com/markethub/backend/internal/application/billing"
	settlementapp "github.com/markethub/backend/internal/application/settlement"
)

// cronTickerInterval is the interval at which the scheduler checks for execution
const cronTickerInterval = 1 * time.Minute

var (
	// ErrSchedulerNotRunning is returned when triggering a stopped scheduler
	ErrSchedulerNotRunning = errors.New("scheduler is not running")

	// ErrInvalidConfig is returned when the cron schedule cannot be parsed
	ErrInvalidConfig = errors.New("invalid scheduler configuration")
)

// SettlementGenerator generates a settlement for a store and period
type SettlementGenerator interface {
	Generate(ctx context.Context, req settlementapp.GenerateRequest) (*settlementapp.SettlementResponse, error)
}

// InvoiceGenerator generates a commission invoice for a store and period.
// A nil response without error means the period carried no commission.
type InvoiceGenerator interface {
	Generate(ctx context.Context, req billingapp.GenerateInvoiceRequest) (*billingapp.InvoiceResponse, error)
}

// PeriodCloseSchedulerConfig holds configuration for the period-close scheduler
type PeriodCloseSchedulerConfig struct {
	// Enabled indicates if the scheduler is enabled
	Enabled bool
	// CronDay is the day of month (1-28) to run the close
	CronDay int
	// CronHour is the hour (0-23) to run the close
	CronHour int
	// CronMinute is the minute (0-59) to run the close
	CronMinute int
	// JobTimeout is the maximum time a single store's close can run
	JobTimeout time.Duration
	// MaxConcurrentJobs bounds how many stores are closed in parallel
	MaxConcurrentJobs int
}

// DefaultPeriodCloseSchedulerConfig returns defaults: the 1st of every
// month at 3:00, so the previous calendar month is fully in the past
func DefaultPeriodCloseSchedulerConfig() PeriodCloseSchedulerConfig {
	return PeriodCloseSchedulerConfig{
		Enabled:           true,
		CronDay:           1,
		CronHour:          3,
		CronMinute:        0,
		JobTimeout:        30 * time.Minute,
		MaxConcurrentJobs: 3,
	}
}

// ParseMonthlySchedule parses a cron expression "minute hour day * *" into
// its components. Empty fields fall back to the defaults (0 3 1). The day
// is capped at 28 so the schedule fires in every month.
func ParseMonthlySchedule(cronExpr string) (minute, hour, day int, err error) {
	minute, hour, day = 0, 3, 1

	if cronExpr == "" {
		return minute, hour, day, nil
	}

	parts := strings.Fields(cronExpr)
	if len(parts) < 3 {
		return minute, hour, day, nil
	}

	if parts[0] != "*" {
		if val, parseErr := parseIntOrDefault(parts[0], 0); parseErr == nil {
			minute = val
		}
	}
	if parts[1] != "*" {
		if val, parseErr := parseIntOrDefault(parts[1], 3); parseErr == nil {
			hour = val
		}
	}
	if parts[2] != "*" {
		if val, parseErr := parseIntOrDefault(parts[2], 1); parseErr == nil {
			day = val
		}
	}

	if minute < 0 || minute > 59 {
		return 0, 3, 1, fmt.Errorf("minute must be 0-59, got %d", minute)
	}
	if hour < 0 || hour > 23 {
		return 0, 3, 1, fmt.Errorf("hour must be 0-23, got %d", hour)
	}
	if day < 1 || day > 28 {
		return 0, 3, 1, fmt.Errorf("day must be 1-28, got %d", day)
	}

	return minute, hour, day, nil
}

// parseIntOrDefault parses an int string or returns default
func parseIntOrDefault(s string, defaultVal int) (int, error) {
	if s == "" || s == "*" {
		return defaultVal, nil
	}
	var val int
	for _, c := range s {
		if c < '0' || c > '9' {
			return defaultVal, ErrInvalidConfig
		}
		val = val*10 + int(c-'0')
	}
	return val, nil
}

// PeriodCloseJobRecord records one store's period close execution
type PeriodCloseJobRecord struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	StoreID     uuid.UUID  `gorm:"column:store_id;type:uuid;not null"`
	PeriodStart time.Time  `gorm:"column:period_start;not null"`
	PeriodEnd   time.Time  `gorm:"column:period_end;not null"`
	Status      string     `gorm:"column:status;size:20"`
	Error       string     `gorm:"column:error;type:text"`
	StartedAt   *time.Time `gorm:"column:started_at"`
	CompletedAt *time.Time `gorm:"column:completed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

// TableName returns the table name for GORM
func (PeriodCloseJobRecord) TableName() string {
	return "period_close_jobs"
}

// Job status values for PeriodCloseJobRecord
const (
	jobStatusRunning = "RUNNING"
	jobStatusSuccess = "SUCCESS"
	jobStatusFailed  = "FAILED"
)

// PeriodCloseJobRepository handles persistence of period-close job records
type PeriodCloseJobRepository struct {
	db *gorm.DB
}

// NewPeriodCloseJobRepository creates a new PeriodCloseJobRepository
func NewPeriodCloseJobRepository(db *gorm.DB) *PeriodCloseJobRepository {
	return &PeriodCloseJobRepository{db: db}
}

// RecordJobStart records the start of a store's period close
func (r *PeriodCloseJobRepository) RecordJobStart(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) (uuid.UUID, error) {
	now := time.Now()
	record := &PeriodCloseJobRecord{
		ID:          uuid.New(),
		StoreID:     storeID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		Status:      jobStatusRunning,
		StartedAt:   &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return uuid.Nil, err
	}
	return record.ID, nil
}

// RecordJobComplete records the outcome of a store's period close
func (r *PeriodCloseJobRepository) RecordJobComplete(ctx context.Context, jobID uuid.UUID, success bool, errMsg string) error {
	now := time.Now()
	status := jobStatusSuccess
	if !success {
		status = jobStatusFailed
	}
	return r.db.WithContext(ctx).
		Model(&PeriodCloseJobRecord{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":       status,
			"error":        errMsg,
			"completed_at": now,
			"updated_at":   now,
		}).Error
}

// PeriodCloseScheduler closes the previous calendar month for every store
// with activity in it: one settlement and one commission invoice per
// store, each store in its own transaction so a failure never blocks the
// others.
type PeriodCloseScheduler struct {
	config      PeriodCloseSchedulerConfig
	db          *gorm.DB
	settlements SettlementGenerator
	invoices    InvoiceGenerator
	jobRepo     *PeriodCloseJobRepository
	logger      *zap.Logger

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool

	lastRunAt *time.Time
	nextRunAt *time.Time
}

// NewPeriodCloseScheduler creates a new PeriodCloseScheduler
func NewPeriodCloseScheduler(
	config PeriodCloseSchedulerConfig,
	db *gorm.DB,
	settlements SettlementGenerator,
	invoices InvoiceGenerator,
	jobRepo *PeriodCloseJobRepository,
	logger *zap.Logger,
) *PeriodCloseScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodCloseScheduler{
		config:      config,
		db:          db,
		settlements: settlements,
		invoices:    invoices,
		jobRepo:     jobRepo,
		logger:      logger,
	}
}

// Start starts the scheduler
func (s *PeriodCloseScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.calculateNextRunTime()

	s.wg.Add(1)
	go s.cronLoop(ctx)

	s.logger.Info("Period close scheduler started",
		zap.Int("cron_day", s.config.CronDay),
		zap.Int("cron_hour", s.config.CronHour),
		zap.Int("cron_minute", s.config.CronMinute),
		zap.Timep("next_run_at", s.nextRunAt),
	)
	return nil
}

// Stop stops the scheduler and waits for in-flight jobs
func (s *PeriodCloseScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Period close scheduler stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Period close scheduler stop timed out")
		return ctx.Err()
	}
}

// cronLoop runs the main cron loop
func (s *PeriodCloseScheduler) cronLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(cronTickerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				periodStart, periodEnd := PreviousMonthPeriod(now)
				s.runPeriodClose(ctx, periodStart, periodEnd)
				s.calculateNextRunTime()
			}
		}
	}
}

// shouldRun checks if the close should run at the given time
func (s *PeriodCloseScheduler) shouldRun(now time.Time) bool {
	return now.Day() == s.config.CronDay &&
		now.Hour() == s.config.CronHour &&
		now.Minute() == s.config.CronMinute
}

// calculateNextRunTime calculates the next run time
func (s *PeriodCloseScheduler) calculateNextRunTime() {
	now := time.Now()
	next := time.Date(now.Year(), now.Month(), s.config.CronDay,
		s.config.CronHour, s.config.CronMinute, 0, 0, now.Location())
	if now.After(next) {
		next = next.AddDate(0, 1, 0)
	}

	s.mu.Lock()
	s.nextRunAt = &next
	s.mu.Unlock()
}

// PreviousMonthPeriod returns the calendar month before the given time as
// an inclusive [start, end] pair in UTC
func PreviousMonthPeriod(now time.Time) (time.Time, time.Time) {
	now = now.UTC()
	firstOfThisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	periodStart := firstOfThisMonth.AddDate(0, -1, 0)
	periodEnd := firstOfThisMonth.Add(-time.Nanosecond)
	return periodStart, periodEnd
}

// storesWithActivity returns the distinct stores that had orders placed
// within the period
func (s *PeriodCloseScheduler) storesWithActivity(ctx context.Context, periodStart, periodEnd time.Time) ([]uuid.UUID, error) {
	var storeIDs []uuid.UUID
	err := s.db.WithContext(ctx).
		Table("sub_orders").
		Distinct("sub_orders.store_id").
		Joins("JOIN orders ON orders.id = sub_orders.order_id").
		Where("orders.placed_at >= ? AND orders.placed_at <= ?", periodStart, periodEnd).
		Pluck("sub_orders.store_id", &storeIDs).Error
	if err != nil {
		return nil, err
	}
	return storeIDs, nil
}

// runPeriodClose closes the period for every store with activity in it
func (s *PeriodCloseScheduler) runPeriodClose(ctx context.Context, periodStart, periodEnd time.Time) {
	now := time.Now()
	s.mu.Lock()
	s.lastRunAt = &now
	s.mu.Unlock()

	s.logger.Info("Starting period close",
		zap.Time("period_start", periodStart),
		zap.Time("period_end", periodEnd),
	)

	storeIDs, err := s.storesWithActivity(ctx, periodStart, periodEnd)
	if err != nil {
		s.logger.Error("Failed to list stores for period close", zap.Error(err))
		return
	}

	s.logger.Info("Closing period for stores", zap.Int("store_count", len(storeIDs)))

	maxConcurrent := s.config.MaxConcurrentJobs
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	sem := make(chan struct{}, maxConcurrent)

	var wg sync.WaitGroup
	for _, storeID := range storeIDs {
		wg.Add(1)
		sem <- struct{}{}
		go func(storeID uuid.UUID) {
			defer wg.Done()
			defer func() { <-sem }()
			s.closeStore(ctx, storeID, periodStart, periodEnd)
		}(storeID)
	}
	wg.Wait()

	s.logger.Info("Period close finished", zap.Int("store_count", len(storeIDs)))
}

// closeStore generates the settlement and commission invoice for one store
func (s *PeriodCloseScheduler) closeStore(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) {
	jobCtx := ctx
	if s.config.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.config.JobTimeout)
		defer cancel()
	}

	var jobID uuid.UUID
	if s.jobRepo != nil {
		var recordErr error
		jobID, recordErr = s.jobRepo.RecordJobStart(jobCtx, storeID, periodStart, periodEnd)
		if recordErr != nil {
			s.logger.Warn("Failed to record period close job start",
				zap.String("store_id", storeID.String()),
				zap.Error(recordErr),
			)
		}
	}

	err := s.closeStoreOnce(jobCtx, storeID, periodStart, periodEnd)
	if err != nil {
		s.logger.Error("Period close failed for store",
			zap.String("store_id", storeID.String()),
			zap.Error(err),
		)
		if s.jobRepo != nil && jobID != uuid.Nil {
			_ = s.jobRepo.RecordJobComplete(jobCtx, jobID, false, err.Error())
		}
		return
	}

	if s.jobRepo != nil && jobID != uuid.Nil {
		_ = s.jobRepo.RecordJobComplete(jobCtx, jobID, true, "")
	}
}

// closeStoreOnce performs the actual settlement and invoice generation
func (s *PeriodCloseScheduler) closeStoreOnce(ctx context.Context, storeID uuid.UUID, periodStart, periodEnd time.Time) error {
	_, err := s.settlements.Generate(ctx, settlementapp.GenerateRequest{
		StoreID:     storeID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		return fmt.Errorf("settlement generation: %w", err)
	}

	invoice, err := s.invoices.Generate(ctx, billingapp.GenerateInvoiceRequest{
		StoreID:     storeID,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	})
	if err != nil {
		return fmt.Errorf("invoice generation: %w", err)
	}
	if invoice == nil {
		s.logger.Debug("No commission to invoice for store",
			zap.String("store_id", storeID.String()))
	}

	return nil
}

// TriggerManualRun closes the previous calendar month outside the schedule.
// Uses a background context so the close survives the HTTP request that
// triggered it.
func (s *PeriodCloseScheduler) TriggerManualRun(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	periodStart, periodEnd := PreviousMonthPeriod(time.Now())
	go s.runPeriodClose(context.Background(), periodStart, periodEnd)
	return nil
}

// TriggerPeriod closes an explicit period, for backfills
func (s *PeriodCloseScheduler) TriggerPeriod(ctx context.Context, periodStart, periodEnd time.Time) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return ErrSchedulerNotRunning
	}
	s.mu.Unlock()

	go s.runPeriodClose(context.Background(), periodStart, periodEnd)
	return nil
}

// GetStatus returns the current status of the scheduler
func (s *PeriodCloseScheduler) GetStatus() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]any{
		"enabled":     s.config.Enabled,
		"is_running":  s.isRunning,
		"cron_day":    s.config.CronDay,
		"cron_hour":   s.config.CronHour,
		"cron_minute": s.config.CronMinute,
		"last_run_at": s.lastRunAt,
		"next_run_at": s.nextRunAt,
	}
}
