package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParticipantStore_Upsert(t *testing.T) {
	cleanTables(t)

	ctx := context.Background()
	store := NewParticipantStore(testPool)

	participant := testParticipant()

	id, err := store.Upsert(ctx, participant)
	require.NoError(t, err)
	assert.Equal(t, participant.ID, id)

	// repeated upsert refreshes credentials and keeps the original id
	replay := testParticipant()
	replay.EvmAddress = participant.EvmAddress
	replay.APIKey = "rotated-key"

	replayID, err := store.Upsert(ctx, replay)
	require.NoError(t, err)
	assert.Equal(t, participant.ID, replayID)
}

func TestParticipantStore_JoinAndFind(t *testing.T) {
	cleanTables(t)

	ctx := context.Background()
	campaignStore := NewCampaignStore(testPool)
	store := NewParticipantStore(testPool)

	campaign := testCampaign()
	require.NoError(t, campaignStore.Insert(ctx, campaign))

	first := testParticipant()
	second := testParticipant()

	firstID, err := store.Upsert(ctx, first)
	require.NoError(t, err)
	secondID, err := store.Upsert(ctx, second)
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)

	require.NoError(t, store.Join(ctx, campaign.ID, secondID, now))
	require.NoError(t, store.Join(ctx, campaign.ID, firstID, now.Add(time.Minute)))

	// joining again is a noop
	require.NoError(t, store.Join(ctx, campaign.ID, secondID, now.Add(time.Hour)))

	participants, err := store.FindCampaignParticipants(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, participants, 2)

	// ordered by join time
	assert.Equal(t, secondID, participants[0].ID)
	assert.True(t, now.Equal(participants[0].JoinedAt))
	assert.Equal(t, firstID, participants[1].ID)
	assert.Equal(t, first.APIKey, participants[1].APIKey)
	assert.Equal(t, first.APISecret, participants[1].APISecret)
}

func TestParticipantStore_IsParticipating(t *testing.T) {
	cleanTables(t)

	ctx := context.Background()
	campaignStore := NewCampaignStore(testPool)
	store := NewParticipantStore(testPool)

	campaign := testCampaign()
	require.NoError(t, campaignStore.Insert(ctx, campaign))

	participant := testParticipant()
	participantID, err := store.Upsert(ctx, participant)
	require.NoError(t, err)

	participating, err := store.IsParticipating(ctx, campaign.ID, participant.EvmAddress)
	require.NoError(t, err)
	assert.False(t, participating)

	require.NoError(t, store.Join(ctx, campaign.ID, participantID, time.Now().UTC()))

	participating, err = store.IsParticipating(ctx, campaign.ID, participant.EvmAddress)
	require.NoError(t, err)
	assert.True(t, participating)
}
