package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/gorm/logger"

	"github.com/mrlokans/readinglists/internal/config"
	"github.com/mrlokans/readinglists/internal/database"
	syncdb "github.com/mrlokans/readinglists/internal/database/sync"
	"github.com/mrlokans/readinglists/internal/readinglists"
	"github.com/mrlokans/readinglists/internal/remote"
	"github.com/mrlokans/readinglists/internal/settingsstore"
)

// SyncCommand runs one synchronous reading list sync pass
type SyncCommand struct {
	DatabasePath string
	APIURL       string
	Token        string
	Timeout      time.Duration
	Full         bool
	Enable       bool
	Disable      bool
	Verbose      bool

	cfg *config.Config
}

// NewSyncCommand creates a new SyncCommand with defaults taken from cfg
func NewSyncCommand(cfg *config.Config) *SyncCommand {
	return &SyncCommand{cfg: cfg}
}

// ParseFlags parses command line flags
func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)

	fs.StringVar(&cmd.DatabasePath, "db", cmd.cfg.Database.Path, "Path to the reading lists database file")
	fs.StringVar(&cmd.APIURL, "api-url", cmd.cfg.Remote.BaseURL, "Base URL of the reading lists API")
	fs.StringVar(&cmd.Token, "token", "", "API token (overrides the stored token)")
	fs.DurationVar(&cmd.Timeout, "timeout", 10*time.Minute, "Maximum duration of the sync pass")
	fs.BoolVar(&cmd.Full, "full", false, "Run a full sync instead of an incremental update")
	fs.BoolVar(&cmd.Enable, "enable", false, "Enable sync before running")
	fs.BoolVar(&cmd.Disable, "disable", false, "Disable sync (keeping local lists) before running")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Run one reading list sync pass against the remote API and print the result.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -enable -full\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -db ./reading-lists.db -token $READING_LISTS_API_TOKEN\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Enable && cmd.Disable {
		return errors.New("-enable and -disable are mutually exclusive")
	}

	return nil
}

// Run executes the sync command
func (cmd *SyncCommand) Run() error {
	fmt.Println("Reading Lists Sync")
	fmt.Println("==================")

	absDBPath, err := filepath.Abs(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for database: %w", err)
	}

	logLevel := logger.Silent
	if cmd.Verbose {
		logLevel = logger.Info
	}
	db, err := database.NewDatabaseWithOptions(absDBPath, database.Options{LogLevel: logLevel})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	fmt.Printf("Database: %s\n", absDBPath)
	fmt.Printf("API: %s\n", cmd.APIURL)

	store := settingsstore.New(db)
	token := cmd.tokenFunc(store)
	if token() == "" {
		fmt.Println("Warning: no API token configured, requests are sent unauthenticated")
	}

	client := remote.NewClient(remote.Options{
		BaseURL: cmd.APIURL,
		Timeout: cmd.cfg.Remote.Timeout,
		Rate:    cmd.cfg.Remote.Rate,
		Burst:   cmd.cfg.Remote.Burst,
		Token:   token,
	})
	controller := readinglists.NewController(readinglists.Options{
		DB:                       db.DB,
		API:                      client,
		Progress:                 syncdb.NewRepository(db.DB),
		DebounceDelay:            cmd.cfg.ReadingLists.SyncDebounce,
		DefaultMaxListsPerUser:   cmd.cfg.ReadingLists.MaxListsPerUser,
		DefaultMaxEntriesPerList: cmd.cfg.ReadingLists.MaxEntriesPerList,
	})
	defer controller.Shutdown()

	var finished readinglists.SyncDidFinish
	unsubscribe := controller.Subscribe(func(e readinglists.Event) {
		switch ev := e.(type) {
		case readinglists.SyncDidFinish:
			finished = ev
		case readinglists.ServerDidConfirmSyncWasEnabled:
			fmt.Printf("Server reports sync enabled for account: %t\n", ev.ForAccount)
		case readinglists.ListsWereSplit:
			fmt.Printf("Server split lists exceeding %d entries\n", ev.EntryLimit)
		}
	})
	defer unsubscribe()

	switch {
	case cmd.Enable:
		controller.SetSyncEnabled(true, false, false)
	case cmd.Disable:
		controller.SetSyncEnabled(false, false, false)
	}

	fmt.Printf("State before: %s\n", controller.SyncState())

	ctx, cancel := context.WithTimeout(context.Background(), cmd.Timeout)
	defer cancel()

	start := time.Now()
	if cmd.Full {
		err = controller.FullSync().Wait(ctx)
	} else {
		_, err = controller.PerformBackgroundFetch(ctx)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	fmt.Printf("State after: %s\n", controller.SyncState())
	fmt.Printf("Synced lists: %d, synced entries: %d (%v)\n",
		finished.SyncedLists, finished.SyncedEntries, time.Since(start).Round(time.Millisecond))
	fmt.Println("\nSync complete!")
	return nil
}

// tokenFunc resolves the API token: flag, then stored setting or environment
func (cmd *SyncCommand) tokenFunc(store *settingsstore.SettingsStore) func() string {
	if cmd.Token != "" {
		token := cmd.Token
		return func() string { return token }
	}
	return store.GetRemoteToken
}
