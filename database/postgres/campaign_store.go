package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"recording-oracle/database"
	"recording-oracle/goutils/datamodel"
)

const campaignColumns = `
	id, chain_id, address, type, exchange_name, symbol,
	start_date, end_date, fund_amount, fund_token, fund_token_decimals,
	details, status, last_results_at, created_at, updated_at
`

// CampaignStore implements database.CampaignStore using PostgreSQL.
type CampaignStore struct {
	pool *Pool
}

func NewCampaignStore(pool *Pool) *CampaignStore {
	return &CampaignStore{pool: pool}
}

var _ database.CampaignStore = (*CampaignStore)(nil)

func (s *CampaignStore) Insert(ctx context.Context, campaign *datamodel.Campaign) error {
	details, err := json.Marshal(campaign.Details)
	if err != nil {
		return fmt.Errorf("marshal campaign details: %w", err)
	}

	query := `
		INSERT INTO campaigns (
			id, chain_id, address, type, exchange_name, symbol,
			start_date, end_date, fund_amount, fund_token, fund_token_decimals,
			details, status, last_results_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, now(), now())
	`

	_, err = s.pool.Exec(ctx, query,
		campaign.ID,
		campaign.ChainID,
		campaign.Address,
		string(campaign.Type),
		campaign.ExchangeName,
		campaign.Symbol,
		campaign.StartDate,
		campaign.EndDate,
		campaign.FundAmount,
		campaign.FundToken,
		campaign.FundTokenDecimals,
		details,
		string(campaign.Status),
		campaign.LastResultsAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return database.ErrDuplicateKey
		}

		return fmt.Errorf("insert campaign: %w", err)
	}

	return nil
}

// Save persists the mutable campaign fields.
func (s *CampaignStore) Save(ctx context.Context, campaign *datamodel.Campaign) error {
	query := `
		UPDATE campaigns
		SET status = $2, last_results_at = $3, updated_at = now()
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query, campaign.ID, string(campaign.Status), campaign.LastResultsAt)
	if err != nil {
		return fmt.Errorf("save campaign: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return database.ErrNotFound
	}

	return nil
}

func (s *CampaignStore) FindOneByChainIdAndAddress(ctx context.Context, chainID int64, address string) (*datamodel.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE chain_id = $1 AND address = $2`

	campaign, err := scanCampaign(s.pool.QueryRow(ctx, query, chainID, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, database.ErrNotFound
		}

		return nil, fmt.Errorf("find campaign by chain and address: %w", err)
	}

	return campaign, nil
}

func (s *CampaignStore) CheckExists(ctx context.Context, chainID int64, address string) (bool, error) {
	var exists bool

	query := `SELECT EXISTS (SELECT 1 FROM campaigns WHERE chain_id = $1 AND address = $2)`
	if err := s.pool.QueryRow(ctx, query, chainID, address).Scan(&exists); err != nil {
		return false, fmt.Errorf("check campaign exists: %w", err)
	}

	return exists, nil
}

func (s *CampaignStore) FindForProgressRecording(ctx context.Context) ([]*datamodel.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = $1 ORDER BY start_date ASC, id ASC`

	rows, err := s.pool.Query(ctx, query, string(datamodel.CampaignStatusActive))
	if err != nil {
		return nil, fmt.Errorf("find campaigns for progress recording: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

func (s *CampaignStore) FindForFinishTracking(ctx context.Context) ([]*datamodel.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE status = ANY($1) ORDER BY end_date ASC, id ASC`

	statuses := []string{
		string(datamodel.CampaignStatusActive),
		string(datamodel.CampaignStatusPendingCompletion),
	}

	rows, err := s.pool.Query(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("find campaigns for finish tracking: %w", err)
	}
	defer rows.Close()

	return scanCampaigns(rows)
}

func (s *CampaignStore) FindLatestForChain(ctx context.Context, chainID int64) (*datamodel.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE chain_id = $1 ORDER BY created_at DESC LIMIT 1`

	campaign, err := scanCampaign(s.pool.QueryRow(ctx, query, chainID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, database.ErrNotFound
		}

		return nil, fmt.Errorf("find latest campaign for chain: %w", err)
	}

	return campaign, nil
}

func scanCampaign(row pgx.Row) (*datamodel.Campaign, error) {
	var (
		campaign    datamodel.Campaign
		typeStr     string
		statusStr   string
		detailsJSON []byte
	)

	err := row.Scan(
		&campaign.ID,
		&campaign.ChainID,
		&campaign.Address,
		&typeStr,
		&campaign.ExchangeName,
		&campaign.Symbol,
		&campaign.StartDate,
		&campaign.EndDate,
		&campaign.FundAmount,
		&campaign.FundToken,
		&campaign.FundTokenDecimals,
		&detailsJSON,
		&statusStr,
		&campaign.LastResultsAt,
		&campaign.CreatedAt,
		&campaign.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(detailsJSON, &campaign.Details); err != nil {
		return nil, fmt.Errorf("unmarshal campaign details: %w", err)
	}

	campaign.Type = datamodel.CampaignType(typeStr)
	campaign.Status = datamodel.CampaignStatus(statusStr)

	return &campaign, nil
}

func scanCampaigns(rows pgx.Rows) ([]*datamodel.Campaign, error) {
	campaigns := make([]*datamodel.Campaign, 0)

	for rows.Next() {
		campaign, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, campaign)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate campaigns: %w", err)
	}

	return campaigns, nil
}
