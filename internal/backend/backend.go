// Package backend picks the transaction mirror the ledger-worker writes to.
package backend

import (
	"context"
	"fmt"

	"conti/internal/config"
	"conti/internal/log"
	"conti/internal/sheets"
	gsheet "conti/internal/sheets/google"
	"conti/internal/sheets/memory"
)

// MirrorType names a mirror implementation.
type MirrorType string

const (
	NoMirror     MirrorType = config.MirrorNone
	MemoryMirror MirrorType = config.MirrorMemory
	SheetsMirror MirrorType = config.MirrorSheets
)

func (t MirrorType) IsValid() bool {
	switch t {
	case NoMirror, MemoryMirror, SheetsMirror:
		return true
	}
	return false
}

// Config carries what the mirror constructors need.
type Config struct {
	Type                MirrorType
	GoogleSpreadsheetID string
}

// FromAppConfig converts the application config to mirror config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	mirrorType := MirrorType(appConfig.MirrorBackend)
	if !mirrorType.IsValid() {
		return Config{}, fmt.Errorf("invalid mirror backend in config: %s", appConfig.MirrorBackend)
	}
	return Config{
		Type:                mirrorType,
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
	}, nil
}

func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid mirror backend: %s", c.Type)
	}
	if c.Type == SheetsMirror && c.GoogleSpreadsheetID == "" {
		return fmt.Errorf("Google Spreadsheet ID is required for sheets mirror")
	}
	return nil
}

// ErrNoMirror is returned by NewMirror when mirroring is switched off.
var ErrNoMirror = fmt.Errorf("mirror backend is %q", NoMirror)

// sheetsFactory is swapped in tests to avoid reaching Google.
var sheetsFactory = func(ctx context.Context) (sheets.TransactionMirror, error) {
	client, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureHeader(ctx); err != nil {
		return nil, fmt.Errorf("write sheet header: %w", err)
	}
	return client, nil
}

// NewMirror builds the configured mirror. The sheets backend reads its
// credentials from the environment.
func NewMirror(ctx context.Context, cfg Config, logger *log.Logger) (sheets.TransactionMirror, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logger.WithComponent(log.ComponentMirror)

	switch cfg.Type {
	case SheetsMirror:
		m, err := sheetsFactory(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets mirror: %w", err)
		}
		logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		return m, nil
	case MemoryMirror:
		logger.Info("Initialized in-memory mirror")
		return memory.New(), nil
	default:
		return nil, ErrNoMirror
	}
}
