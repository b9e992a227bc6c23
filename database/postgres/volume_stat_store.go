package postgres

import (
	"context"
	"fmt"

	"recording-oracle/database"
	"recording-oracle/goutils/datamodel"
)

// VolumeStatStore implements database.VolumeStatStore using PostgreSQL.
type VolumeStatStore struct {
	pool *Pool
}

func NewVolumeStatStore(pool *Pool) *VolumeStatStore {
	return &VolumeStatStore{pool: pool}
}

var _ database.VolumeStatStore = (*VolumeStatStore)(nil)

func (s *VolumeStatStore) Upsert(ctx context.Context, stat *datamodel.VolumeStat) error {
	query := `
		INSERT INTO volume_stats (exchange_name, campaign_address, period_start, period_end, volume, volume_usd, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (exchange_name, campaign_address, period_start) DO UPDATE
		SET period_end = EXCLUDED.period_end,
			volume = EXCLUDED.volume,
			volume_usd = EXCLUDED.volume_usd,
			recorded_at = now()
	`

	_, err := s.pool.Exec(ctx, query,
		stat.ExchangeName,
		stat.CampaignAddress,
		stat.PeriodStart,
		stat.PeriodEnd,
		stat.Volume,
		stat.VolumeUsd,
	)
	if err != nil {
		return fmt.Errorf("upsert volume stat: %w", err)
	}

	return nil
}
