// Command hospadmin is a terminal console for hospital administrators.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/nhle/hospital-admin/internal/api"
	"github.com/nhle/hospital-admin/internal/app"
	"github.com/nhle/hospital-admin/internal/credential"
	"github.com/nhle/hospital-admin/internal/logger"
	"github.com/nhle/hospital-admin/internal/model"
	"github.com/nhle/hospital-admin/internal/service"
	"github.com/nhle/hospital-admin/internal/store"
	"github.com/nhle/hospital-admin/internal/ui"
)

// journalKeep is how many journal entries survive the startup prune.
const journalKeep = 1000

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hospadmin: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := pflag.StringP("config", "c", model.DefaultConfigPath(), "path to the YAML config file")
	baseURL := pflag.String("base-url", "", "API base URL, overrides server.base_url")
	logLevel := pflag.String("log-level", "", "log level (debug, info, warn, error)")
	pflag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}
	if *baseURL != "" {
		cfg.Server.BaseURL = *baseURL
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := logger.Init(cfg.Log.Level, cfg.Log.File); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer logger.Close()

	s, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer s.Close()

	if n, err := s.Prune(context.Background(), journalKeep); err != nil {
		logger.Warnf("pruning journal: %v", err)
	} else if n > 0 {
		logger.Debugf("pruned %d journal entries", n)
	}

	token, err := credential.SessionToken(os.Getenv("HOSPADMIN_TOKEN"))
	if err != nil {
		logger.Warnf("reading stored session token: %v", err)
	}

	timeout := time.Duration(cfg.Server.TimeoutSec) * time.Second
	client := api.NewClient(cfg.Server.BaseURL, token, api.WithTimeout(timeout))
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warnf("closing api client: %v", err)
		}
	}()

	ui.RequestTimeout = timeout
	ui.MessageClearDelay = time.Duration(cfg.UI.MessageClearSec) * time.Second

	logger.Infof("starting against %s", client.BaseURL())

	m := app.New(app.Deps{
		Client:        client,
		Auth:          service.NewAuthService(client),
		Users:         service.NewJournaledUsers(service.NewUserService(client), s),
		Resources:     service.NewJournaledResources(service.NewResourceService(client), s),
		Hospitals:     service.NewJournaledHospitals(service.NewHospitalService(client), s),
		Notifications: service.NewJournaledNotifications(service.NewNotificationService(client), s),
		Journal:       s,
		PollInterval:  time.Duration(cfg.Notifications.PollIntervalSec) * time.Second,
		Token:         token,
		SaveToken: func(tok string) error {
			return credential.Set(credential.SessionTokenKey, tok)
		},
		ClearToken: func() error {
			return credential.Delete(credential.SessionTokenKey)
		},
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running console: %w", err)
	}
	return nil
}
