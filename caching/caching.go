package caching

import (
	"context"
	"errors"
	"time"

	"recording-oracle/goutils/datamodel"
)

// DbCache holds the interim (mid-window) campaign progress so that
// user-facing progress reads don't hammer exchange APIs.
type DbCache interface {
	SetInterimProgress(ctx context.Context, campaignID string, progress *datamodel.CampaignProgress, validUntil time.Time) error
	GetInterimProgress(ctx context.Context, campaignID string) (*datamodel.CampaignProgress, error)
}

var ErrNotFound = errors.New("not found in cache")
