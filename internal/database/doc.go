// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, plain settings access
//	├── lists/           # Reading list, entry and article queries
//	├── sync/            # Sync progress tracking
//	└── settings/        # Settings and the typed reading list configuration blob
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	// Initialize database connection
//	db, err := database.NewDatabase("./reading-lists.db")
//
//	// Create domain-specific repositories
//	listsRepo := lists.NewRepository(db.DB)
//	settingsRepo := settings.NewRepository(db.DB)
//
// Repositories take a *gorm.DB, which may be a transaction. The reading list
// controller opens one transaction per mutation and builds short-lived
// repositories on it, so records and sync state commit together:
//
//	err := db.DB.Transaction(func(tx *gorm.DB) error {
//		repo := lists.NewRepository(tx)
//		return repo.SaveList(list)
//	})
//
// # Interface Implementations
//
//   - sync.Repository: implements readinglists.ProgressRecorder
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
