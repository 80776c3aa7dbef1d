// Package di provides dependency injection container
package di

import (
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/aerobonkers/pkg/ledger"
	"github.com/ssargent/aerobonkers/pkg/metrics"
)

// RunLedger stores and reads run records
type RunLedger interface {
	Save(rec ledger.RunRecord) error
	Get(id ksuid.KSUID) (*ledger.RunRecord, error)
	List() ([]ledger.RunRecord, error)
	Delete(id ksuid.KSUID) error
	Close() error
}

// LedgerOpener opens the run ledger in a directory
type LedgerOpener func(dir string) (RunLedger, error)

// Container holds all the dependencies for the application
type Container struct {
	logger       *zap.Logger
	metrics      *metrics.Metrics
	ledgerOpener LedgerOpener
}

// NewContainer creates a new dependency injection container. A nil logger
// discards all output.
func NewContainer(logger *zap.Logger) *Container {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Container{
		logger:  logger,
		metrics: metrics.NewMetrics(),
		ledgerOpener: func(dir string) (RunLedger, error) {
			return ledger.Open(dir)
		},
	}
}

// GetLogger returns the application logger
func (c *Container) GetLogger() *zap.Logger {
	return c.logger
}

// GetMetrics returns the run metrics
func (c *Container) GetMetrics() *metrics.Metrics {
	return c.metrics
}

// OpenLedger opens the run ledger in dir
func (c *Container) OpenLedger(dir string) (RunLedger, error) {
	return c.ledgerOpener(dir)
}

// SetLogger replaces the application logger
func (c *Container) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

// SetLedgerOpener allows overriding how the ledger is opened (for testing)
func (c *Container) SetLedgerOpener(opener LedgerOpener) {
	c.ledgerOpener = opener
}
