package mock

import (
	"context"
	"time"

	"recording-oracle/goutils/datamodel"
)

type CampaignStoreMock struct {
	InsertMock                     func(ctx context.Context, campaign *datamodel.Campaign) error
	SaveMock                       func(ctx context.Context, campaign *datamodel.Campaign) error
	FindOneByChainIdAndAddressMock func(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error)
	CheckExistsMock                func(ctx context.Context, chainID int64, address string) (bool, error)
	FindForProgressRecordingMock   func(ctx context.Context) ([]*datamodel.Campaign, error)
	FindForFinishTrackingMock      func(ctx context.Context) ([]*datamodel.Campaign, error)
	FindLatestForChainMock         func(ctx context.Context, chainID int64) (*datamodel.Campaign, error)
}

func (m CampaignStoreMock) Insert(ctx context.Context, campaign *datamodel.Campaign) error {
	return m.InsertMock(ctx, campaign)
}

func (m CampaignStoreMock) Save(ctx context.Context, campaign *datamodel.Campaign) error {
	return m.SaveMock(ctx, campaign)
}

func (m CampaignStoreMock) FindOneByChainIdAndAddress(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
	return m.FindOneByChainIdAndAddressMock(ctx, chainID, address)
}

func (m CampaignStoreMock) CheckExists(ctx context.Context, chainID int64, address string) (bool, error) {
	return m.CheckExistsMock(ctx, chainID, address)
}

func (m CampaignStoreMock) FindForProgressRecording(ctx context.Context) ([]*datamodel.Campaign, error) {
	return m.FindForProgressRecordingMock(ctx)
}

func (m CampaignStoreMock) FindForFinishTracking(ctx context.Context) ([]*datamodel.Campaign, error) {
	return m.FindForFinishTrackingMock(ctx)
}

func (m CampaignStoreMock) FindLatestForChain(ctx context.Context, chainID int64) (*datamodel.Campaign, error) {
	return m.FindLatestForChainMock(ctx, chainID)
}

type ParticipantStoreMock struct {
	UpsertMock                   func(ctx context.Context, participant *datamodel.Participant) (string, error)
	JoinMock                     func(ctx context.Context, campaignID string, participantID string, joinedAt time.Time) error
	FindCampaignParticipantsMock func(ctx context.Context, campaignID string) ([]*datamodel.Participant, error)
	IsParticipatingMock          func(ctx context.Context, campaignID string, evmAddress string) (bool, error)
}

func (m ParticipantStoreMock) Upsert(ctx context.Context, participant *datamodel.Participant) (string, error) {
	return m.UpsertMock(ctx, participant)
}

func (m ParticipantStoreMock) Join(ctx context.Context, campaignID string, participantID string, joinedAt time.Time) error {
	return m.JoinMock(ctx, campaignID, participantID, joinedAt)
}

func (m ParticipantStoreMock) FindCampaignParticipants(ctx context.Context, campaignID string) ([]*datamodel.Participant, error) {
	return m.FindCampaignParticipantsMock(ctx, campaignID)
}

func (m ParticipantStoreMock) IsParticipating(ctx context.Context, campaignID string, evmAddress string) (bool, error) {
	return m.IsParticipatingMock(ctx, campaignID, evmAddress)
}

type VolumeStatStoreMock struct {
	UpsertMock func(ctx context.Context, stat *datamodel.VolumeStat) error
}

func (m VolumeStatStoreMock) Upsert(ctx context.Context, stat *datamodel.VolumeStat) error {
	return m.UpsertMock(ctx, stat)
}

type AdvisoryLockerMock struct {
	WithLockMock func(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error)
}

func (m AdvisoryLockerMock) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (bool, error) {
	return m.WithLockMock(ctx, key, fn)
}
