package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/calliope-press/inkstone/internal/common"
	"github.com/calliope-press/inkstone/internal/contentservice"
	"github.com/calliope-press/inkstone/internal/notifyservice"
	"github.com/calliope-press/inkstone/internal/sectionservice"
	"github.com/calliope-press/inkstone/internal/siteservice"
)

type application struct {
	config         *Config
	logger         *slog.Logger
	siteService    *siteservice.SiteService
	contentService *contentservice.ContentService
	sectionService *sectionservice.SectionService
	notifyService  *notifyservice.NotifyService
	broker         *common.MessageBroker
}

func main() {
	// Initialize the logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// Load the configuration
	cfg, err := loadConfig(".env")
	if err != nil {
		logger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize the database
	db, err := common.NewDB(cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, 10, 5, 15*time.Minute)
	if err != nil {
		logger.Error("failed to connect to the database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer common.CloseDB(db)

	// Initialize the message broker
	URI := fmt.Sprintf("amqp://%s:%s@%s:%s/", cfg.MQUser, cfg.MQPassword, cfg.MQHost, cfg.MQPort)
	broker, err := common.NewMessageBroker(URI)
	if err != nil {
		logger.Error("failed to connect to the message broker", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer broker.Close()

	// Setup the content exchange, queues, and binding keys
	err = common.SetupContentExchange(broker)
	if err != nil {
		logger.Error("failed to setup the content exchange", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cache := common.NewCache(5*time.Minute, 10*time.Minute)

	// Initialize the services
	app := &application{
		config:         cfg,
		logger:         logger,
		siteService:    siteservice.NewSiteService(db, cache),
		contentService: contentservice.NewContentService(db, broker, cache),
		sectionService: sectionservice.NewSectionService(db, cache),
		notifyService:  notifyservice.NewNotifyService(broker, cfg.MailHost, cfg.MailUser, cfg.MailPassword, cfg.MailSender, cfg.MailModeration, cfg.MailPort, logger),
		broker:         broker,
	}

	// Initialize the consumer
	go app.notifyService.SendCommentNotifications()

	// Start the HTTP server
	err = app.serve(cfg.Port)
	if err != nil {
		logger.Error("failed to start the server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
