package campaigns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"recording-oracle/caching"
	"recording-oracle/database"
	"recording-oracle/exchanges"
	"recording-oracle/goutils/datamodel"
	"recording-oracle/goutils/mock"
)

func TestActiveTimeframe(t *testing.T) {
	campaign := activeMarketMakingCampaign()
	campaign.StartDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	campaign.EndDate = campaign.StartDate.Add(7 * 24 * time.Hour)

	// mid second window
	now := campaign.StartDate.Add(30 * time.Hour)

	timeframe := ActiveTimeframe(campaign, now)
	assert.NotNil(t, timeframe)
	assert.Equal(t, campaign.StartDate.Add(24*time.Hour+time.Millisecond), timeframe.Start)
	assert.Equal(t, now, timeframe.End)

	// first window starts right at the campaign start
	timeframe = ActiveTimeframe(campaign, campaign.StartDate.Add(time.Hour))
	assert.NotNil(t, timeframe)
	assert.Equal(t, campaign.StartDate.Add(time.Millisecond), timeframe.Start)
}

func TestActiveTimeframe_NotRunning(t *testing.T) {
	campaign := activeMarketMakingCampaign()
	campaign.StartDate = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	campaign.EndDate = campaign.StartDate.Add(7 * 24 * time.Hour)

	assert.Nil(t, ActiveTimeframe(campaign, campaign.StartDate.Add(-time.Hour)))
	assert.Nil(t, ActiveTimeframe(campaign, campaign.EndDate.Add(time.Hour)))

	pending := activeMarketMakingCampaign()
	pending.Status = datamodel.CampaignStatusPendingCompletion
	assert.Nil(t, ActiveTimeframe(pending, time.Now().UTC()))

	completed := activeMarketMakingCampaign()
	completed.Status = datamodel.CampaignStatusCompleted
	assert.Nil(t, ActiveTimeframe(completed, time.Now().UTC()))
}

func TestRefreshInterimProgressCache(t *testing.T) {
	campaign := activeMarketMakingCampaign()
	participant := &datamodel.Participant{
		ID:         "participant-1",
		EvmAddress: "0xaaaa",
		JoinedAt:   campaign.StartDate,
	}

	endingSoon := activeMarketMakingCampaign()
	endingSoon.ID = "campaign-ending"
	endingSoon.EndDate = time.Now().UTC().Add(time.Minute)

	m := defaultServiceMocks()
	m.campaignStore = mock.CampaignStoreMock{
		FindForProgressRecordingMock: func(ctx context.Context) ([]*datamodel.Campaign, error) {
			return []*datamodel.Campaign{campaign, endingSoon}, nil
		},
	}
	m.participantStore = singleParticipantStore(participant)
	m.clientFactory = singleTradeFactory(exchanges.Trade{
		ID:           "1",
		Timestamp:    time.Now().UTC().Add(-30 * time.Minute).UnixMilli(),
		Side:         exchanges.TradingSideBuy,
		TakerOrMaker: exchanges.FlagMaker,
		Cost:         100,
	})

	var cachedCampaignID string
	var cachedProgress *datamodel.CampaignProgress
	var cachedValidUntil time.Time

	m.cache = mock.DbCacheMock{
		SetInterimProgressMock: func(ctx context.Context, campaignID string, progress *datamodel.CampaignProgress, validUntil time.Time) error {
			cachedCampaignID = campaignID
			cachedProgress = progress
			cachedValidUntil = validUntil

			return nil
		},
	}

	newTestService(m).RefreshInterimProgressCache(context.Background())

	// the campaign about to end is skipped, only the ongoing one is cached
	assert.Equal(t, campaign.ID, cachedCampaignID)
	assert.Equal(t, campaign.EndDate, cachedValidUntil)

	assert.NotNil(t, cachedProgress)
	assert.Len(t, cachedProgress.ParticipantsOutcomes, 1)
	assert.Equal(t, "0xaaaa", cachedProgress.ParticipantsOutcomes[0].Address)
}

func TestRefreshInterimProgressCache_SkipsWhenLockedElsewhere(t *testing.T) {
	m := defaultServiceMocks()
	m.locker = mock.AdvisoryLockerMock{
		WithLockMock: func(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
			return false, nil
		},
	}
	m.campaignStore = mock.CampaignStoreMock{
		FindForProgressRecordingMock: func(ctx context.Context) ([]*datamodel.Campaign, error) {
			t.Fatal("campaigns must not be fetched without the lock")

			return nil, nil
		},
	}

	newTestService(m).RefreshInterimProgressCache(context.Background())
}

func cachedProgressFor(campaign *datamodel.Campaign, now time.Time) *datamodel.CampaignProgress {
	timeframe := ActiveTimeframe(campaign, now)
	volume := 500.0
	myVolume := 300.0

	return &datamodel.CampaignProgress{
		From: timeframe.Start,
		To:   now,
		ParticipantsOutcomes: []datamodel.ParticipantOutcome{
			{Address: "0xaaaa", Score: 300, TotalVolume: &myVolume},
			{Address: "0xbbbb", Score: 200},
		},
		Meta: datamodel.ProgressMeta{TotalVolume: &volume},
	}
}

func TestGetUserProgress(t *testing.T) {
	campaign := activeMarketMakingCampaign()
	progress := cachedProgressFor(campaign, time.Now().UTC())

	m := defaultServiceMocks()
	m.campaignStore = mock.CampaignStoreMock{
		FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
			return campaign, nil
		},
	}
	m.participantStore = mock.ParticipantStoreMock{
		IsParticipatingMock: func(ctx context.Context, campaignID string, evmAddress string) (bool, error) {
			return true, nil
		},
	}
	m.cache = mock.DbCacheMock{
		GetInterimProgressMock: func(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error) {
			return progress, nil
		},
	}

	userProgress, err := newTestService(m).GetUserProgress(context.Background(), "0xaaaa", testChainID, campaign.Address)
	assert.NoError(t, err)
	assert.NotNil(t, userProgress)

	assert.Equal(t, progress.From, userProgress.From)
	assert.Equal(t, float64(300), userProgress.MyScore)
	assert.NotNil(t, userProgress.MyOutcome)
	assert.Equal(t, "0xaaaa", userProgress.MyOutcome.Address)
	assert.Equal(t, progress.Meta, userProgress.TotalMeta)
}

func TestGetUserProgress_NoOutcomeForUser(t *testing.T) {
	campaign := activeMarketMakingCampaign()
	progress := cachedProgressFor(campaign, time.Now().UTC())

	m := defaultServiceMocks()
	m.campaignStore = mock.CampaignStoreMock{
		FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
			return campaign, nil
		},
	}
	m.participantStore = mock.ParticipantStoreMock{
		IsParticipatingMock: func(ctx context.Context, campaignID string, evmAddress string) (bool, error) {
			return true, nil
		},
	}
	m.cache = mock.DbCacheMock{
		GetInterimProgressMock: func(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error) {
			return progress, nil
		},
	}

	userProgress, err := newTestService(m).GetUserProgress(context.Background(), "0xcccc", testChainID, campaign.Address)
	assert.NoError(t, err)
	assert.NotNil(t, userProgress)

	assert.Zero(t, userProgress.MyScore)
	assert.Nil(t, userProgress.MyOutcome)
}

func TestGetUserProgress_NoCachedProgressYet(t *testing.T) {
	campaign := activeMarketMakingCampaign()

	m := defaultServiceMocks()
	m.campaignStore = mock.CampaignStoreMock{
		FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
			return campaign, nil
		},
	}
	m.participantStore = mock.ParticipantStoreMock{
		IsParticipatingMock: func(ctx context.Context, campaignID string, evmAddress string) (bool, error) {
			return true, nil
		},
	}
	m.cache = mock.DbCacheMock{
		GetInterimProgressMock: func(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error) {
			return nil, caching.ErrNotFound
		},
	}

	userProgress, err := newTestService(m).GetUserProgress(context.Background(), "0xaaaa", testChainID, campaign.Address)
	assert.NoError(t, err)
	assert.Nil(t, userProgress)
}

func TestGetUserProgress_StaleCachedProgress(t *testing.T) {
	campaign := activeMarketMakingCampaign()

	// cached for the previous window
	stale := cachedProgressFor(campaign, time.Now().UTC())
	stale.From = stale.From.Add(-progressWindowLength)

	m := defaultServiceMocks()
	m.campaignStore = mock.CampaignStoreMock{
		FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
			return campaign, nil
		},
	}
	m.participantStore = mock.ParticipantStoreMock{
		IsParticipatingMock: func(ctx context.Context, campaignID string, evmAddress string) (bool, error) {
			return true, nil
		},
	}
	m.cache = mock.DbCacheMock{
		GetInterimProgressMock: func(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error) {
			return stale, nil
		},
	}

	userProgress, err := newTestService(m).GetUserProgress(context.Background(), "0xaaaa", testChainID, campaign.Address)
	assert.NoError(t, err)
	assert.Nil(t, userProgress)
}

func TestGetUserProgress_Errors(t *testing.T) {
	t.Run("campaign not found", func(t *testing.T) {
		m := defaultServiceMocks()
		m.campaignStore = mock.CampaignStoreMock{
			FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
				return nil, database.ErrNotFound
			},
		}

		_, err := newTestService(m).GetUserProgress(context.Background(), "0xaaaa", testChainID, testEscrowAddress)
		assert.ErrorIs(t, err, ErrCampaignNotFound)
	})

	t.Run("campaign not started", func(t *testing.T) {
		campaign := activeMarketMakingCampaign()
		campaign.StartDate = time.Now().UTC().Add(time.Hour)

		m := defaultServiceMocks()
		m.campaignStore = mock.CampaignStoreMock{
			FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
				return campaign, nil
			},
		}

		_, err := newTestService(m).GetUserProgress(context.Background(), "0xaaaa", testChainID, campaign.Address)
		assert.ErrorIs(t, err, ErrCampaignNotStarted)
	})

	t.Run("campaign finished", func(t *testing.T) {
		campaign := activeMarketMakingCampaign()
		campaign.Status = datamodel.CampaignStatusPendingCompletion

		m := defaultServiceMocks()
		m.campaignStore = mock.CampaignStoreMock{
			FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
				return campaign, nil
			},
		}

		_, err := newTestService(m).GetUserProgress(context.Background(), "0xaaaa", testChainID, campaign.Address)
		assert.ErrorIs(t, err, ErrCampaignAlreadyFinished)
	})

	t.Run("user not participating", func(t *testing.T) {
		campaign := activeMarketMakingCampaign()

		m := defaultServiceMocks()
		m.campaignStore = mock.CampaignStoreMock{
			FindOneByChainIdAndAddressMock: func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
				return campaign, nil
			},
		}
		m.participantStore = mock.ParticipantStoreMock{
			IsParticipatingMock: func(ctx context.Context, campaignID string, evmAddress string) (bool, error) {
				return false, nil
			},
		}

		_, err := newTestService(m).GetUserProgress(context.Background(), "0xaaaa", testChainID, campaign.Address)
		assert.ErrorIs(t, err, ErrUserNotParticipating)
	})
}
