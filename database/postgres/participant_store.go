package postgres

import (
	"context"
	"fmt"
	"time"

	"recording-oracle/database"
	"recording-oracle/goutils/datamodel"
)

// ParticipantStore implements database.ParticipantStore using PostgreSQL.
type ParticipantStore struct {
	pool *Pool
}

func NewParticipantStore(pool *Pool) *ParticipantStore {
	return &ParticipantStore{pool: pool}
}

var _ database.ParticipantStore = (*ParticipantStore)(nil)

// Upsert keeps one row per evm address; a repeated upsert refreshes
// the exchange credentials and returns the original id.
func (s *ParticipantStore) Upsert(ctx context.Context, participant *datamodel.Participant) (string, error) {
	query := `
		INSERT INTO participants (id, evm_address, api_key, api_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (evm_address) DO UPDATE
		SET api_key = EXCLUDED.api_key, api_secret = EXCLUDED.api_secret, updated_at = now()
		RETURNING id
	`

	var id string

	err := s.pool.QueryRow(ctx, query,
		participant.ID,
		participant.EvmAddress,
		participant.APIKey,
		participant.APISecret,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("upsert participant: %w", err)
	}

	return id, nil
}

func (s *ParticipantStore) Join(ctx context.Context, campaignID string, participantID string, joinedAt time.Time) error {
	query := `
		INSERT INTO campaign_participants (campaign_id, participant_id, joined_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (campaign_id, participant_id) DO NOTHING
	`

	if _, err := s.pool.Exec(ctx, query, campaignID, participantID, joinedAt); err != nil {
		return fmt.Errorf("join campaign: %w", err)
	}

	return nil
}

func (s *ParticipantStore) FindCampaignParticipants(ctx context.Context, campaignID string) ([]*datamodel.Participant, error) {
	query := `
		SELECT p.id, p.evm_address, cp.joined_at, p.api_key, p.api_secret
		FROM campaign_participants cp
		JOIN participants p ON p.id = cp.participant_id
		WHERE cp.campaign_id = $1
		ORDER BY cp.joined_at ASC, p.id ASC
	`

	rows, err := s.pool.Query(ctx, query, campaignID)
	if err != nil {
		return nil, fmt.Errorf("find campaign participants: %w", err)
	}
	defer rows.Close()

	participants := make([]*datamodel.Participant, 0)

	for rows.Next() {
		var participant datamodel.Participant

		err := rows.Scan(
			&participant.ID,
			&participant.EvmAddress,
			&participant.JoinedAt,
			&participant.APIKey,
			&participant.APISecret,
		)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}

		participants = append(participants, &participant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participants: %w", err)
	}

	return participants, nil
}

func (s *ParticipantStore) IsParticipating(ctx context.Context, campaignID string, evmAddress string) (bool, error) {
	var participating bool

	query := `
		SELECT EXISTS (
			SELECT 1
			FROM campaign_participants cp
			JOIN participants p ON p.id = cp.participant_id
			WHERE cp.campaign_id = $1 AND p.evm_address = $2
		)
	`

	if err := s.pool.QueryRow(ctx, query, campaignID, evmAddress).Scan(&participating); err != nil {
		return false, fmt.Errorf("check participation: %w", err)
	}

	return participating, nil
}
