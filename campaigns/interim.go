package campaigns

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/remeh/sizedwaitgroup"
	log "github.com/sirupsen/logrus"

	"recording-oracle/caching"
	"recording-oracle/database"
	"recording-oracle/goutils/datamodel"
)

const (
	interimRefreshConcurrency = 3

	// campaigns this close to their end are about to get a real
	// recorded window, refreshing the interim cache is wasted work
	interimRefreshEndCutoff = 5 * time.Minute
)

// Timeframe is the currently running, not yet recorded part of a
// campaign window.
type Timeframe struct {
	Start time.Time
	End   time.Time
}

// RefreshInterimProgressCache recomputes mid-window progress for every
// ongoing campaign and caches it for user-facing progress reads. The
// pass is correctness-independent, so campaigns are refreshed with
// bounded concurrency.
func (s *CampaignsService) RefreshInterimProgressCache(ctx context.Context) {
	acquired, err := s.locker.WithLock(ctx, "refresh-interim-progress-cache", func(ctx context.Context) error {
		s.refreshInterimProgressCacheLocked(ctx)

		return nil
	})
	if err != nil {
		log.WithError(err).Error("error while refreshing interim progress cache")

		return
	}

	if !acquired {
		log.Debug("interim progress cache refresh locked elsewhere, skipping")
	}
}

func (s *CampaignsService) refreshInterimProgressCacheLocked(ctx context.Context) {
	log.Debug("interim progress cache refresh started")

	campaignsToRefresh, err := s.campaignStore.FindForProgressRecording(ctx)
	if err != nil {
		log.WithError(err).Error("failed to fetch campaigns for interim progress refresh")

		return
	}

	now := time.Now().UTC()
	swg := sizedwaitgroup.New(interimRefreshConcurrency)

	for _, campaign := range campaignsToRefresh {
		logEntry := log.WithField("campaignId", campaign.ID).
			WithField("chainId", campaign.ChainID).
			WithField("campaignAddress", campaign.Address)

		if now.Add(interimRefreshEndCutoff).After(campaign.EndDate) {
			logEntry.Debug("campaign ends soon, skipping interim progress refresh")

			continue
		}

		timeframe := ActiveTimeframe(campaign, now)
		if timeframe == nil {
			logEntry.Debug("no active timeframe, skipping interim progress refresh")

			continue
		}

		swg.Add()

		go func(campaign *datamodel.Campaign, timeframe *Timeframe) {
			defer swg.Done()

			progress, err := s.CheckCampaignProgressForPeriod(ctx, campaign, timeframe.Start, timeframe.End, false)
			if err != nil {
				logEntry.WithError(err).Error("failed to get interim progress for campaign")

				return
			}

			if err := s.cache.SetInterimProgress(ctx, campaign.ID, progress, campaign.EndDate); err != nil {
				logEntry.WithError(err).Error("failed to cache interim progress")
			}
		}(campaign, timeframe)
	}

	swg.Wait()

	log.Debug("interim progress cache refresh finished")
}

// ActiveTimeframe returns the currently running part of the campaign's
// progress window, or nil when the campaign is not running.
func ActiveTimeframe(campaign *datamodel.Campaign, now time.Time) *Timeframe {
	if now.Before(campaign.StartDate) {
		return nil
	}

	if campaign.Status.IsTerminal() || campaign.Status == datamodel.CampaignStatusPendingCompletion || now.After(campaign.EndDate) {
		return nil
	}

	windowsPassed := int(now.Sub(campaign.StartDate) / progressWindowLength)

	start := campaign.StartDate.
		Add(time.Duration(windowsPassed) * progressWindowLength).
		Add(time.Millisecond)

	return &Timeframe{Start: start, End: now}
}

// UserProgress is one participant's share of the cached interim
// progress of a campaign.
type UserProgress struct {
	From      time.Time                     `json:"from"`
	To        time.Time                     `json:"to"`
	MyScore   float64                       `json:"my_score"`
	MyOutcome *datamodel.ParticipantOutcome `json:"my_outcome,omitempty"`
	TotalMeta datamodel.ProgressMeta        `json:"total_meta"`
}

// GetUserProgress serves the participant's cached interim progress.
// Returns nil when no progress is cached for the active timeframe yet.
func (s *CampaignsService) GetUserProgress(ctx context.Context, evmAddress string, chainID int64, campaignAddress string) (*UserProgress, error) {
	campaign, err := s.campaignStore.FindOneByChainIdAndAddress(ctx, chainID, campaignAddress)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrCampaignNotFound
		}

		return nil, err
	}

	now := time.Now().UTC()

	if now.Before(campaign.StartDate) {
		return nil, ErrCampaignNotStarted
	}

	if campaign.Status != datamodel.CampaignStatusActive || now.After(campaign.EndDate) {
		return nil, ErrCampaignAlreadyFinished
	}

	participating, err := s.participantStore.IsParticipating(ctx, campaign.ID, evmAddress)
	if err != nil {
		return nil, err
	}

	if !participating {
		return nil, ErrUserNotParticipating
	}

	timeframe := ActiveTimeframe(campaign, now)
	if timeframe == nil {
		return nil, fmt.Errorf("%w: no active timeframe", ErrInvalidCampaign)
	}

	progress, err := s.cache.GetInterimProgress(ctx, campaign.ID)
	if err != nil {
		if errors.Is(err, caching.ErrNotFound) {
			return nil, nil
		}

		return nil, err
	}

	// cached progress for a previous timeframe is not served
	if !progress.From.Equal(timeframe.Start) {
		return nil, nil
	}

	userProgress := &UserProgress{
		From:      progress.From,
		To:        progress.To,
		TotalMeta: progress.Meta,
	}

	for i := range progress.ParticipantsOutcomes {
		outcome := progress.ParticipantsOutcomes[i]
		if outcome.Address == evmAddress {
			userProgress.MyScore = outcome.Score
			userProgress.MyOutcome = &outcome

			break
		}
	}

	return userProgress, nil
}
