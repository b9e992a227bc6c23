package database

import (
	"context"
	"errors"
	"time"

	"recording-oracle/goutils/datamodel"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert hits a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

// CampaignStore provides access to locally tracked campaigns.
type CampaignStore interface {
	// Insert adds a new campaign. Returns ErrDuplicateKey when the
	// (chainId, address) pair is already tracked.
	Insert(ctx context.Context, campaign *datamodel.Campaign) error

	// Save persists status and lastResultsAt of an existing campaign.
	Save(ctx context.Context, campaign *datamodel.Campaign) error

	// FindOneByChainIdAndAddress returns the campaign or ErrNotFound.
	FindOneByChainIdAndAddress(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error)

	// CheckExists reports whether the (chainId, address) pair is tracked.
	CheckExists(ctx context.Context, chainID int64, address string) (bool, error)

	// FindForProgressRecording returns campaigns whose progress should
	// be checked, ordered by start date.
	FindForProgressRecording(ctx context.Context) ([]*datamodel.Campaign, error)

	// FindForFinishTracking returns non-terminal campaigns whose local
	// status may need a sync from the on-chain escrow status.
	FindForFinishTracking(ctx context.Context) ([]*datamodel.Campaign, error)

	// FindLatestForChain returns the most recently created campaign on
	// the chain, or ErrNotFound when none is tracked yet.
	FindLatestForChain(ctx context.Context, chainID int64) (*datamodel.Campaign, error)
}

// ParticipantStore provides access to participants and their campaign
// memberships.
type ParticipantStore interface {
	// Upsert inserts the participant or refreshes the stored exchange
	// credentials, and returns the canonical participant id.
	Upsert(ctx context.Context, participant *datamodel.Participant) (string, error)

	// Join links a participant to a campaign. Joining twice is a noop.
	Join(ctx context.Context, campaignID string, participantID string, joinedAt time.Time) error

	// FindCampaignParticipants returns all participants of a campaign
	// ordered by join time.
	FindCampaignParticipants(ctx context.Context, campaignID string) ([]*datamodel.Participant, error)

	// IsParticipating reports whether the address joined the campaign.
	IsParticipating(ctx context.Context, campaignID string, evmAddress string) (bool, error)
}

// VolumeStatStore records denormalized per-period volume rollups.
type VolumeStatStore interface {
	// Upsert writes the stat keyed by (exchange, campaign, periodStart).
	Upsert(ctx context.Context, stat *datamodel.VolumeStat) error
}

// AdvisoryLocker serializes work on a named resource across all oracle
// instances sharing one database.
type AdvisoryLocker interface {
	// WithLock runs fn while holding the lock for key. When the lock is
	// held elsewhere it returns acquired=false without running fn.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) (acquired bool, err error)
}
