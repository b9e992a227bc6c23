package mock

import (
	"context"
	"time"

	"recording-oracle/goutils/datamodel"
)

type BlobStoreMock struct {
	UploadMock func(ctx context.Context, content []byte, key string, contentType string) (string, error)
}

func (m BlobStoreMock) Upload(ctx context.Context, content []byte, key string, contentType string) (string, error) {
	return m.UploadMock(ctx, content, key, contentType)
}

type PriceFeedMock struct {
	GetTokenPriceUsdMock func(symbol string) (float64, error)
}

func (m PriceFeedMock) GetTokenPriceUsd(symbol string) (float64, error) {
	return m.GetTokenPriceUsdMock(symbol)
}

type DbCacheMock struct {
	SetInterimProgressMock func(ctx context.Context, campaignID string, progress *datamodel.CampaignProgress, validUntil time.Time) error
	GetInterimProgressMock func(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error)
}

func (m DbCacheMock) SetInterimProgress(ctx context.Context, campaignID string, progress *datamodel.CampaignProgress, validUntil time.Time) error {
	return m.SetInterimProgressMock(ctx, campaignID, progress, validUntil)
}

func (m DbCacheMock) GetInterimProgress(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error) {
	return m.GetInterimProgressMock(ctx, campaignID)
}
