// Command labinv searches and administers a lab inventory server from the
// terminal.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/labinv/internal/adapters/driven/config/file"
	"github.com/custodia-labs/labinv/internal/adapters/driven/registration/csvfile"
	"github.com/custodia-labs/labinv/internal/adapters/driven/remote/rest"
	"github.com/custodia-labs/labinv/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/labinv/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/labinv/internal/adapters/driving/cli"
	"github.com/custodia-labs/labinv/internal/core/domain"
	"github.com/custodia-labs/labinv/internal/core/ports/driven"
	"github.com/custodia-labs/labinv/internal/core/ports/driving"
	"github.com/custodia-labs/labinv/internal/core/services"
	"github.com/custodia-labs/labinv/internal/logger"
)

var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ephemeral := cli.Ephemeral(os.Args[1:])

	var configStore driven.ConfigStore
	if ephemeral {
		configStore = memory.NewConfigStore()
	} else {
		fileStore, err := file.NewConfigStore("")
		if err != nil {
			logger.Warn("config file unavailable, using defaults: %v", err)
			configStore = memory.NewConfigStore()
		} else {
			configStore = fileStore
		}
	}
	settingsService := services.NewSettingsService(configStore)

	var (
		savedStore driven.SavedSearchStore = memory.NewSavedSearchStore()
		taskStore  driven.TaskStore        = memory.NewTaskStore()
	)
	if !ephemeral {
		store, err := sqlite.NewStore("")
		if err != nil {
			logger.Warn("local database unavailable, history will not be kept: %v", err)
		} else {
			defer store.Close()
			savedStore = store.SavedSearchStore()
			taskStore = store.TaskStore()
		}
	}

	queue := services.NewTaskQueue(taskStore)
	go func() {
		if err := queue.Start(ctx); err != nil {
			logger.Error("task queue: %v", err)
		}
	}()
	defer queue.Stop() //nolint:errcheck // shutdown

	bus := services.NewEventBus()
	codec := services.NewQueryCodec()

	svc := cli.Services{
		Settings:          settingsService,
		Codec:             codec,
		Bus:               bus,
		Tasks:             queue,
		LocalRegistration: services.NewRegistrationService(csvfile.NewParser(), nil, queue),
	}

	var inventory driven.InventoryClient
	settings, err := settingsService.Get()
	if err != nil {
		logger.Warn("reading settings: %v", err)
	} else {
		client, err := rest.NewClient(rest.ConfigFromSettings(*settings), codec)
		switch {
		case errors.Is(err, domain.ErrNotConfigured):
			logger.Debug("no inventory server configured")
		case err != nil:
			logger.Warn("inventory client: %v", err)
		default:
			inventory = client
			svc.Records = services.NewRecordActionService(client, bus)
			svc.Admin = services.NewAdminService(client, bus)
			svc.LDAP = services.NewLDAPService(client, queue)
			svc.Registration = services.NewRegistrationService(client, client, queue)
		}
	}

	svc.NewSearch = func(name string, overrides ...domain.Override) (driving.SearchService, error) {
		sc, err := settingsService.SearchContext(name)
		if err != nil {
			return nil, err
		}
		fetcher := services.NewFetcher(inventory, sc.Defaults.With(overrides...))
		return services.NewSearchService(fetcher, sc, inventory, savedStore), nil
	}

	cli.SetVersion(version)
	cli.SetServices(svc)
	if err := cli.Execute(ctx); err != nil {
		return 1
	}
	return 0
}
