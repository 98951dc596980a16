package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leboncoin-watcher/config"
	"leboncoin-watcher/notify"
	"leboncoin-watcher/scraper/leboncoin"
	"leboncoin-watcher/services"
	"leboncoin-watcher/storage"
	"leboncoin-watcher/utils"
)

func main() {
	cfg := config.FromEnv()
	utils.Info("Watcher starting | headless=%v interval=%v-%v state=%s",
		cfg.Headless, cfg.MinInterval, cfg.MaxInterval, cfg.SeenFile)
	if err := cfg.Validate(); err != nil {
		utils.Warn("%v (each scan will be skipped until it is set)", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	extractor := leboncoin.NewDefaultExtractor(cfg.MaxListings, cfg.StructuredTimeout, cfg.CardsTimeout, cfg.SnapshotDir)
	notifier := notify.NewDiscordNotifier(cfg.WebhookURL, cfg.BotName, cfg.AvatarURL, cfg.NotifyTimeout)
	store := storage.NewSeenStore(cfg.SeenFile)

	poller := services.NewPoller(cfg, services.ChromeSessions, extractor, notifier, store)
	poller.Run(ctx)
}
