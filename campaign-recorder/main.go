package main

import (
	"context"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"recording-oracle/caching"
	"recording-oracle/campaigns"
	"recording-oracle/database/postgres"
	"recording-oracle/exchanges"
	"recording-oracle/goutils/blobstore"
	"recording-oracle/goutils/escrowcontract"
	"recording-oracle/goutils/escrowindex"
	"recording-oracle/goutils/health"
	"recording-oracle/goutils/logger"
	"recording-oracle/goutils/pricefeed"
	"recording-oracle/goutils/redisutils"
	"recording-oracle/goutils/settings"
)

func main() {
	logger.InitLogger()

	settingsObj := settings.ParseSettings()

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, settingsObj.Database.DSN, settingsObj.Database.PoolSize)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to postgres")
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		log.WithError(err).Fatal("failed to run database migrations")
	}

	redisutils.InitRedisClient(
		settingsObj.Redis.Host,
		settingsObj.Redis.Port,
		settingsObj.Redis.Db,
		settingsObj.Redis.PoolSize,
		settingsObj.Redis.Password,
	)

	caching.NewRedisCache()
	exchanges.InitFactory(settingsObj)
	escrowcontract.InitService(settingsObj)
	escrowindex.InitClient(settingsObj)
	blobstore.InitS3Store(settingsObj)
	pricefeed.InitPriceFeed(settingsObj)

	campaignsService := campaigns.InitCampaignsService()

	health.HealthCheck(settingsObj.Healthcheck)

	cronRunner := cron.New(cron.WithChain(
		cron.Recover(cron.DefaultLogger),
	))

	addJob(cronRunner, settingsObj.Campaigns.ProgressCron, "campaigns progress recording", func() {
		campaignsService.RecordCampaignsProgress(ctx)
	})

	addJob(cronRunner, settingsObj.Campaigns.FinishTrackingCron, "campaigns finish tracking", func() {
		campaignsService.TrackCampaignsFinish(ctx)
	})

	addJob(cronRunner, settingsObj.Campaigns.DiscoveryCron, "new campaigns discovery", func() {
		campaignsService.DiscoverNewCampaigns(ctx)
	})

	addJob(cronRunner, settingsObj.Campaigns.InterimRefreshCron, "interim progress cache refresh", func() {
		campaignsService.RefreshInterimProgressCache(ctx)
	})

	cronRunner.Start()

	// block forever
	select {}
}

func addJob(cronRunner *cron.Cron, spec string, name string, job func()) {
	cronId, err := cronRunner.AddFunc(spec, job)
	if err != nil {
		log.WithError(err).WithField("job", name).Fatal("failed to add cron job")
	}

	log.WithField("cronId", cronId).WithField("job", name).Info("added cron job")
}
