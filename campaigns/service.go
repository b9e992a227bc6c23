package campaigns

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"

	"recording-oracle/caching"
	"recording-oracle/campaigns/progresscheck"
	"recording-oracle/database"
	"recording-oracle/database/postgres"
	"recording-oracle/exchanges"
	"recording-oracle/goutils/blobstore"
	"recording-oracle/goutils/datamodel"
	"recording-oracle/goutils/escrowcontract"
	"recording-oracle/goutils/escrowindex"
	"recording-oracle/goutils/httpclient"
	"recording-oracle/goutils/pricefeed"
	"recording-oracle/goutils/settings"
)

// EscrowContract is the on-chain escrow surface the service consumes.
type EscrowContract interface {
	GetStatus(ctx context.Context, chainID int64, address string) (escrowcontract.Status, error)
	GetIntermediateResultsUrl(ctx context.Context, chainID int64, address string) (string, error)
	StoreResults(ctx context.Context, chainID int64, address string, url string, hash string, fundsToReserve *big.Int) (string, error)
	GetTokenInfo(ctx context.Context, chainID int64, tokenAddress string) (escrowcontract.TokenInfo, error)
}

// EscrowIndex is the indexed escrow listing used for campaign
// hydration and discovery.
type EscrowIndex interface {
	GetEscrow(ctx context.Context, chainID int64, address string) (*escrowindex.EscrowData, error)
	GetEscrows(ctx context.Context, query escrowindex.ListQuery) ([]*escrowindex.EscrowData, error)
}

type CampaignsService struct {
	settingsObj      *settings.SettingsObj
	campaignStore    database.CampaignStore
	participantStore database.ParticipantStore
	volumeStatStore  database.VolumeStatStore
	locker           database.AdvisoryLocker
	escrowContract   EscrowContract
	escrowIndex      EscrowIndex
	blobStore        blobstore.Service
	priceFeed        pricefeed.Service
	clientFactory    exchanges.ClientFactory
	cache            caching.DbCache
	httpClient       *retryablehttp.Client
}

func NewCampaignsService(
	settingsObj *settings.SettingsObj,
	campaignStore database.CampaignStore,
	participantStore database.ParticipantStore,
	volumeStatStore database.VolumeStatStore,
	locker database.AdvisoryLocker,
	escrowContract EscrowContract,
	escrowIndex EscrowIndex,
	blobStore blobstore.Service,
	priceFeed pricefeed.Service,
	clientFactory exchanges.ClientFactory,
	cache caching.DbCache,
	httpClient *retryablehttp.Client,
) *CampaignsService {
	return &CampaignsService{
		settingsObj:      settingsObj,
		campaignStore:    campaignStore,
		participantStore: participantStore,
		volumeStatStore:  volumeStatStore,
		locker:           locker,
		escrowContract:   escrowContract,
		escrowIndex:      escrowIndex,
		blobStore:        blobStore,
		priceFeed:        priceFeed,
		clientFactory:    clientFactory,
		cache:            cache,
		httpClient:       httpClient,
	}
}

// InitCampaignsService wires the service from the DI container.
func InitCampaignsService() *CampaignsService {
	settingsObj, err := gi.Invoke[*settings.SettingsObj]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke settings object")
	}

	pool, err := gi.Invoke[*postgres.Pool]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke postgres pool")
	}

	escrowContract, err := gi.Invoke[*escrowcontract.Service]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke escrow contract service")
	}

	escrowIndex, err := gi.Invoke[*escrowindex.Client]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke escrow index client")
	}

	blobStore, err := gi.Invoke[*blobstore.S3Store]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke results storage")
	}

	priceFeed, err := gi.Invoke[*pricefeed.Client]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke price feed client")
	}

	clientFactory, err := gi.Invoke[*exchanges.Factory]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke exchange client factory")
	}

	redisCache, err := gi.Invoke[*caching.RedisCache]()
	if err != nil {
		log.WithError(err).Fatal("failed to invoke redis cache")
	}

	service := NewCampaignsService(
		settingsObj,
		postgres.NewCampaignStore(pool),
		postgres.NewParticipantStore(pool),
		postgres.NewVolumeStatStore(pool),
		postgres.NewAdvisoryLock(pool),
		escrowContract,
		escrowIndex,
		blobStore,
		priceFeed,
		clientFactory,
		redisCache,
		httpclient.GetDefaultHTTPClient(settingsObj),
	)

	if err := gi.Inject(service); err != nil {
		log.WithError(err).Fatal("failed to inject campaigns service")
	}

	return service
}

// RecordCampaignsProgress checks and records one progress window for
// every campaign that is due. Campaigns are processed sequentially and
// a failure on one campaign never blocks the others.
func (s *CampaignsService) RecordCampaignsProgress(ctx context.Context) {
	log.Debug("campaigns progress recording started")

	campaignsToCheck, err := s.campaignStore.FindForProgressRecording(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch campaigns for progress recording")

		return
	}

	for _, campaign := range campaignsToCheck {
		if err := s.recordCampaignProgress(ctx, campaign); err != nil {
			log.WithError(err).
				WithField("campaignId", campaign.ID).
				WithField("campaignAddress", campaign.Address).
				Error("failure while recording campaign progress")
		}
	}

	log.Debug("campaigns progress recording finished")
}

func (s *CampaignsService) recordCampaignProgress(ctx context.Context, campaign *datamodel.Campaign) error {
	acquired, err := s.locker.WithLock(ctx, "record-campaign-progress:"+campaign.ID, func(ctx context.Context) error {
		return s.recordCampaignProgressLocked(ctx, campaign)
	})
	if err != nil {
		return err
	}

	if !acquired {
		log.WithField("campaignId", campaign.ID).Debug("campaign progress recording locked elsewhere, skipping")
	}

	return nil
}

func (s *CampaignsService) recordCampaignProgressLocked(ctx context.Context, campaign *datamodel.Campaign) error {
	logEntry := log.WithField("campaignId", campaign.ID).
		WithField("chainId", campaign.ChainID).
		WithField("campaignAddress", campaign.Address).
		WithField("exchangeName", campaign.ExchangeName).
		WithField("symbol", campaign.Symbol)

	if campaign.Status.IsTerminal() {
		// safety belt, terminal campaigns are not selected for recording
		return nil
	}

	// local status can lag the chain, always live-check before recording
	escrowStatus, err := s.escrowContract.GetStatus(ctx, campaign.ChainID, campaign.Address)
	if err != nil {
		return fmt.Errorf("get escrow status: %w", err)
	}

	if escrowStatus.IsFinal() {
		logEntry.WithField("escrowStatus", escrowStatus.String()).
			Warn("campaign finished on chain, skipping progress recording")

		return nil
	}

	now := time.Now().UTC()

	if !campaign.StartDate.Before(now) {
		logEntry.Warn("campaign not started, skipping progress recording")

		return nil
	}

	results, err := s.retrieveIntermediateResults(ctx, campaign)
	if err != nil {
		return fmt.Errorf("retrieve intermediate results: %w", err)
	}

	if results == nil {
		results = &datamodel.IntermediateResultsData{
			ChainID:  campaign.ChainID,
			Address:  campaign.Address,
			Exchange: campaign.ExchangeName,
			Symbol:   campaign.Symbol,
			Results:  []datamodel.IntermediateResult{},
		}
	}

	plan := PlanNextWindow(campaign, results.LastResult(), now)

	switch plan.Kind {
	case PlanSkip:
		logEntry.Debug("progress window not finished yet, skipping")

		return nil
	case PlanOverlap:
		// recorded results already cover the campaign end; this happens
		// only after local state loss or a status rollback
		logEntry.Warn("campaign progress window overlaps campaign end, marking pending completion")

		campaign.Status = datamodel.CampaignStatusPendingCompletion
		lastResultsAt := now
		campaign.LastResultsAt = &lastResultsAt

		return s.campaignStore.Save(ctx, campaign)
	}

	progress, err := s.CheckCampaignProgressForPeriod(ctx, campaign, plan.From, plan.To, true)
	if err != nil {
		return fmt.Errorf("check campaign progress: %w", err)
	}

	rewardPool, err := s.calculateWindowRewardPool(campaign, progress.Meta)
	if err != nil {
		return fmt.Errorf("calculate reward pool: %w", err)
	}

	intermediateResult := datamodel.IntermediateResult{
		From:                        progress.From,
		To:                          progress.To,
		ProgressMeta:                progress.Meta,
		ReservedFunds:               rewardPool.String(),
		ParticipantsOutcomesBatches: BatchOutcomes(progress.ParticipantsOutcomes, s.settingsObj.Campaigns.BulkPayoutMaxItems),
	}

	results.Results = append(results.Results, intermediateResult)

	fundsToReserve := rewardPool.Shift(campaign.FundTokenDecimals).BigInt()

	logEntry.WithField("from", plan.From).
		WithField("to", plan.To).
		WithField("reservedFunds", rewardPool.String()).
		Info("going to record campaign progress")

	storedResults, err := s.recordIntermediateResults(ctx, results, fundsToReserve)
	if err != nil {
		return fmt.Errorf("record intermediate results: %w", err)
	}

	logEntry.WithField("resultsUrl", storedResults.URL).Info("campaign progress recorded")

	if campaign.Type == datamodel.CampaignTypeMarketMaking {
		s.recordGeneratedVolume(ctx, campaign, &intermediateResult)
	}

	// processing can lag behind the campaign end, so the campaign is
	// finished only once results are recorded for every window
	if plan.To.Equal(campaign.EndDate) {
		campaign.Status = datamodel.CampaignStatusPendingCompletion
	}

	lastResultsAt := now
	campaign.LastResultsAt = &lastResultsAt

	return s.campaignStore.Save(ctx, campaign)
}

// CheckCampaignProgressForPeriod computes every participant's outcome
// for the period. Participants flagged for abuse or with broken
// exchange access are left out of the outcomes.
func (s *CampaignsService) CheckCampaignProgressForPeriod(
	ctx context.Context,
	campaign *datamodel.Campaign,
	periodStart time.Time,
	periodEnd time.Time,
	logWarnings bool,
) (*datamodel.CampaignProgress, error) {
	if periodStart.After(periodEnd) {
		return nil, errors.New("invalid period range provided")
	}

	sampler, err := progresscheck.NewAbuseSampler(
		s.settingsObj.Campaigns.AbuseSampleSize,
		s.settingsObj.Campaigns.AbuseSampleCapacity,
	)
	if err != nil {
		return nil, fmt.Errorf("create abuse sampler: %w", err)
	}

	checker, err := progresscheck.NewChecker(campaign.Type, s.clientFactory, sampler, progresscheck.Setup{
		ExchangeName: campaign.ExchangeName,
		Symbol:       campaign.Symbol,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Details:      campaign.Details,
	})
	if err != nil {
		return nil, err
	}

	participants, err := s.participantStore.FindCampaignParticipants(ctx, campaign.ID)
	if err != nil {
		return nil, fmt.Errorf("find campaign participants: %w", err)
	}

	outcomes := make([]datamodel.ParticipantOutcome, 0, len(participants))

	for _, participant := range participants {
		result, err := checker.CheckForParticipant(ctx, participant)
		if err != nil {
			if errors.Is(err, exchanges.ErrAPIAccess) {
				if logWarnings {
					log.WithError(err).
						WithField("campaignId", campaign.ID).
						WithField("participantId", participant.ID).
						Warn("exchange access failed for participant, skipping")
				}

				continue
			}

			return nil, fmt.Errorf("check participant %s: %w", participant.ID, err)
		}

		if result.AbuseDetected {
			if logWarnings {
				log.WithField("campaignId", campaign.ID).
					WithField("participantId", participant.ID).
					Warn("abuse detected, skipping participant outcome")
			}

			continue
		}

		outcomes = append(outcomes, datamodel.ParticipantOutcome{
			Address:      participant.EvmAddress,
			Score:        result.Score,
			TotalVolume:  result.TotalVolume,
			TokenBalance: result.TokenBalance,
		})
	}

	return &datamodel.CampaignProgress{
		From:                 periodStart,
		To:                   periodEnd,
		ParticipantsOutcomes: outcomes,
		Meta:                 checker.CollectedMeta(),
	}, nil
}

// calculateWindowRewardPool scales the daily reward by the share of
// the campaign target the participants met during the window.
func (s *CampaignsService) calculateWindowRewardPool(campaign *datamodel.Campaign, meta datamodel.ProgressMeta) (decimal.Decimal, error) {
	fundAmount, err := decimal.NewFromString(campaign.FundAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse fund amount: %w", err)
	}

	dailyReward, err := CalculateDailyReward(fundAmount, campaign.StartDate, campaign.EndDate, campaign.FundTokenDecimals)
	if err != nil {
		return decimal.Zero, err
	}

	var progressValue, progressValueTarget float64

	switch campaign.Type {
	case datamodel.CampaignTypeMarketMaking:
		progressValueTarget = campaign.Details.DailyVolumeTarget
		if meta.TotalVolume != nil {
			progressValue = *meta.TotalVolume
		}
	case datamodel.CampaignTypeHolding:
		progressValueTarget = campaign.Details.DailyBalanceTarget
		if meta.TotalBalance != nil {
			progressValue = *meta.TotalBalance
		}
	case datamodel.CampaignTypeThreshold:
		// full daily pool as soon as anyone qualifies
		progressValueTarget = 1
		if meta.TotalScore != nil {
			progressValue = *meta.TotalScore
		}
	default:
		return decimal.Zero, fmt.Errorf("unknown campaign type for reward pool calculation: %s", campaign.Type)
	}

	return CalculateRewardPool(dailyReward, progressValue, progressValueTarget, campaign.FundTokenDecimals)
}

type storedResultsMeta struct {
	URL  string
	Hash string
}

// recordIntermediateResults uploads the full ledger content-addressed
// and records the pointer on the escrow together with the reserved
// reward pool.
func (s *CampaignsService) recordIntermediateResults(
	ctx context.Context,
	results *datamodel.IntermediateResultsData,
	fundsToReserve *big.Int,
) (*storedResultsMeta, error) {
	serialized, err := json.Marshal(results)
	if err != nil {
		return nil, fmt.Errorf("marshal intermediate results: %w", err)
	}

	digest := sha256.Sum256(serialized)
	resultsHash := hex.EncodeToString(digest[:])
	fileName := fmt.Sprintf("%s/%s.json", results.Address, resultsHash)

	resultsURL, err := s.blobStore.Upload(ctx, serialized, fileName, "application/json")
	if err != nil {
		return nil, fmt.Errorf("upload intermediate results: %w", err)
	}

	_, err = s.escrowContract.StoreResults(ctx, results.ChainID, results.Address, resultsURL, resultsHash, fundsToReserve)
	if err != nil {
		return nil, fmt.Errorf("store results on escrow: %w", err)
	}

	return &storedResultsMeta{URL: resultsURL, Hash: resultsHash}, nil
}

// retrieveIntermediateResults downloads the ledger pointed to from the
// escrow. A campaign without recorded results yet returns nil.
func (s *CampaignsService) retrieveIntermediateResults(ctx context.Context, campaign *datamodel.Campaign) (*datamodel.IntermediateResultsData, error) {
	resultsURL, err := s.escrowContract.GetIntermediateResultsUrl(ctx, campaign.ChainID, campaign.Address)
	if err != nil {
		return nil, err
	}

	if resultsURL == "" {
		return nil, nil
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, resultsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create results request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download intermediate results: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download intermediate results: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read intermediate results: %w", err)
	}

	results := new(datamodel.IntermediateResultsData)
	if err := json.Unmarshal(body, results); err != nil {
		return nil, fmt.Errorf("unmarshal intermediate results: %w", err)
	}

	return results, nil
}

// recordGeneratedVolume denormalizes the window's generated volume for
// reporting. Best effort only, never fails the recording.
func (s *CampaignsService) recordGeneratedVolume(ctx context.Context, campaign *datamodel.Campaign, result *datamodel.IntermediateResult) {
	if result.TotalVolume == nil {
		return
	}

	pair := strings.SplitN(campaign.Symbol, "/", 2)
	if len(pair) != 2 {
		return
	}

	quoteTokenPriceUsd, err := s.priceFeed.GetTokenPriceUsd(pair[1])
	if err != nil {
		if !errors.Is(err, pricefeed.ErrPriceNotAvailable) {
			log.WithError(err).WithField("symbol", pair[1]).Warn("failed to get quote token price")
		}

		return
	}

	volumeUsd := *result.TotalVolume * quoteTokenPriceUsd

	err = s.volumeStatStore.Upsert(ctx, &datamodel.VolumeStat{
		ExchangeName:    campaign.ExchangeName,
		CampaignAddress: campaign.Address,
		PeriodStart:     result.From,
		PeriodEnd:       result.To,
		Volume:          strconv.FormatFloat(*result.TotalVolume, 'f', -1, 64),
		VolumeUsd:       strconv.FormatFloat(volumeUsd, 'f', -1, 64),
	})
	if err != nil {
		log.WithError(err).WithField("campaignId", campaign.ID).Warn("failed to upsert volume stat")
	}
}

// TrackCampaignsFinish syncs non-terminal local campaign statuses with
// the on-chain escrow status. Completion and cancellation are decided
// only here, never inferred from local state.
func (s *CampaignsService) TrackCampaignsFinish(ctx context.Context) {
	log.Debug("campaigns finish tracking started")

	campaignsToSync, err := s.campaignStore.FindForFinishTracking(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch campaigns for finish tracking")

		return
	}

	for _, campaign := range campaignsToSync {
		logEntry := log.WithField("campaignId", campaign.ID).
			WithField("chainId", campaign.ChainID).
			WithField("campaignAddress", campaign.Address)

		escrowStatus, err := s.escrowContract.GetStatus(ctx, campaign.ChainID, campaign.Address)
		if err != nil {
			logEntry.WithError(err).Error("failed to get escrow status for campaign")

			continue
		}

		switch escrowStatus {
		case escrowcontract.StatusComplete:
			logEntry.Info("marking campaign as completed")

			campaign.Status = datamodel.CampaignStatusCompleted
		case escrowcontract.StatusCancelled:
			logEntry.Info("marking campaign as cancelled")

			campaign.Status = datamodel.CampaignStatusCancelled
		default:
			continue
		}

		if err := s.campaignStore.Save(ctx, campaign); err != nil {
			logEntry.WithError(err).Error("failed to save campaign status")
		}
	}

	log.Debug("campaigns finish tracking finished")
}
