package badger

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/studium/internal/common"
	"github.com/ternarybob/studium/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db      *BadgerDB
	content interfaces.ContentStorage
	run     interfaces.RunStorage
	runLog  interfaces.RunLogStorage
	kv      interfaces.KeyValueStorage
	logger  arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:      db,
		content: NewContentStorage(db, logger),
		run:     NewRunStorage(db, logger),
		runLog:  NewRunLogStorage(db, logger),
		kv:      NewKVStorage(db, logger),
		logger:  logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ContentStorage returns the daily content storage interface
func (m *Manager) ContentStorage() interfaces.ContentStorage {
	return m.content
}

// RunStorage returns the generation run storage interface
func (m *Manager) RunStorage() interfaces.RunStorage {
	return m.run
}

// RunLogStorage returns the run log storage interface
func (m *Manager) RunLogStorage() interfaces.RunLogStorage {
	return m.runLog
}

// KeyValueStorage returns the KeyValue storage interface
func (m *Manager) KeyValueStorage() interfaces.KeyValueStorage {
	return m.kv
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// LoadVariablesFromFiles loads key/value variables from TOML files in a directory
func (m *Manager) LoadVariablesFromFiles(ctx context.Context, dirPath string) error {
	return loadVariablesFromFiles(ctx, m.kv, dirPath, m.logger)
}

// LoadEnvFile loads variables from a .env file into the KV store
func (m *Manager) LoadEnvFile(ctx context.Context, filePath string) error {
	return loadEnvFile(ctx, m.kv, filePath, m.logger)
}
