package campaigns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"recording-oracle/database"
	"recording-oracle/goutils/datamodel"
	"recording-oracle/goutils/escrowcontract"
	"recording-oracle/goutils/escrowindex"
)

const (
	discoveryLookback   = 24 * time.Hour
	discoveryBatchSize  = 10
	escrowStatusPending = "Pending"
)

// JoinCampaignInput carries everything needed to register one
// participant on a campaign.
type JoinCampaignInput struct {
	ChainID    int64
	Address    string
	EvmAddress string
	APIKey     string
	APISecret  string
}

// JoinCampaign registers the participant on the campaign, hydrating the
// campaign from its escrow when it is not tracked locally yet. Repeated
// joins are a noop. Returns the campaign id.
func (s *CampaignsService) JoinCampaign(ctx context.Context, input JoinCampaignInput) (string, error) {
	campaignAddress := common.HexToAddress(input.Address).Hex()

	campaign, err := s.campaignStore.FindOneByChainIdAndAddress(ctx, input.ChainID, campaignAddress)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return "", err
		}

		campaign, err = s.hydrateCampaign(ctx, input.ChainID, campaignAddress)
		if err != nil {
			return "", err
		}
	}

	// escrows can be manipulated on chain directly after creation, so
	// status-sensitive paths always live-check it
	escrowStatus, err := s.escrowContract.GetStatus(ctx, campaign.ChainID, campaign.Address)
	if err != nil {
		return "", fmt.Errorf("get escrow status: %w", err)
	}

	now := time.Now().UTC()

	if campaign.Status == datamodel.CampaignStatusCancelled || escrowStatus == escrowcontract.StatusCancelled {
		return "", ErrCampaignCancelled
	}

	if escrowStatus == escrowcontract.StatusComplete || !campaign.EndDate.After(now) {
		return "", ErrCampaignAlreadyFinished
	}

	if !s.clientFactory.IsSupported(campaign.ExchangeName) {
		return "", fmt.Errorf("%w: exchange %s is not supported", ErrInvalidCampaign, campaign.ExchangeName)
	}

	participantID, err := s.participantStore.Upsert(ctx, &datamodel.Participant{
		ID:         uuid.NewString(),
		EvmAddress: input.EvmAddress,
		APIKey:     input.APIKey,
		APISecret:  input.APISecret,
	})
	if err != nil {
		return "", err
	}

	if err := s.participantStore.Join(ctx, campaign.ID, participantID, now); err != nil {
		return "", err
	}

	return campaign.ID, nil
}

// DiscoverNewCampaigns finds freshly launched escrows assigned to this
// oracle and starts tracking them without waiting for anyone to join.
func (s *CampaignsService) DiscoverNewCampaigns(ctx context.Context) {
	log.Debug("new campaigns discovery started")

	for _, chain := range s.settingsObj.Chains {
		if err := s.discoverNewCampaignsForChain(ctx, chain.ChainID); err != nil {
			log.WithError(err).WithField("chainId", chain.ChainID).Error("error while discovering new campaigns for chain")
		}
	}

	log.Debug("new campaigns discovery finished")
}

func (s *CampaignsService) discoverNewCampaignsForChain(ctx context.Context, chainID int64) error {
	var lookbackDate time.Time

	latestKnown, err := s.campaignStore.FindLatestForChain(ctx, chainID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return err
		}

		lookbackDate = time.Now().UTC().Add(-discoveryLookback)
	} else {
		escrow, err := s.escrowIndex.GetEscrow(ctx, chainID, latestKnown.Address)
		if err != nil {
			return fmt.Errorf("get escrow for latest known campaign: %w", err)
		}

		// createdAt is a block timestamp shared by escrows created in the
		// same block, so look back from the exact same instant
		lookbackDate = escrow.CreatedAt
	}

	newEscrows, err := s.escrowIndex.GetEscrows(ctx, escrowindex.ListQuery{
		ChainID:         chainID,
		RecordingOracle: s.settingsObj.Signer.AccountAddress,
		Status:          escrowStatusPending,
		From:            lookbackDate,
		First:           discoveryBatchSize,
	})
	if err != nil {
		return fmt.Errorf("list new escrows: %w", err)
	}

	for _, newEscrow := range newEscrows {
		campaignAddress := common.HexToAddress(newEscrow.Address).Hex()

		logEntry := log.WithField("chainId", chainID).WithField("campaignAddress", campaignAddress)

		exists, err := s.campaignStore.CheckExists(ctx, chainID, campaignAddress)
		if err != nil {
			return err
		}

		if exists {
			logEntry.Debug("discovered campaign already exists, skipping")

			continue
		}

		campaign, err := s.hydrateCampaign(ctx, chainID, campaignAddress)
		if err != nil {
			if errors.Is(err, ErrInvalidCampaign) || errors.Is(err, ErrInvalidManifestSchema) {
				logEntry.WithError(err).Warn("discovered campaign is not valid, skipping")

				continue
			}

			return fmt.Errorf("create discovered campaign: %w", err)
		}

		logEntry.WithField("campaignId", campaign.ID).Info("discovered and created new campaign")
	}

	return nil
}

// hydrateCampaign pulls escrow and manifest data and creates the local
// campaign record.
func (s *CampaignsService) hydrateCampaign(ctx context.Context, chainID int64, campaignAddress string) (*datamodel.Campaign, error) {
	escrow, err := s.escrowIndex.GetEscrow(ctx, chainID, campaignAddress)
	if err != nil {
		if errors.Is(err, escrowindex.ErrEscrowNotFound) {
			return nil, ErrCampaignNotFound
		}

		return nil, err
	}

	if escrow.Token == "" {
		return nil, fmt.Errorf("%w: missing fund token data", ErrInvalidCampaign)
	}

	if escrow.TotalFundedAmount == "" {
		return nil, fmt.Errorf("%w: invalid fund amount", ErrInvalidCampaign)
	}

	if escrow.Manifest == "" || escrow.ManifestHash == "" {
		return nil, fmt.Errorf("%w: missing manifest data", ErrInvalidCampaign)
	}

	if !strings.EqualFold(escrow.RecordingOracle, s.settingsObj.Signer.AccountAddress) {
		return nil, fmt.Errorf("%w: escrow assigned to another oracle %s", ErrInvalidCampaign, escrow.RecordingOracle)
	}

	escrowStatus, err := s.escrowContract.GetStatus(ctx, chainID, campaignAddress)
	if err != nil {
		return nil, fmt.Errorf("get escrow status: %w", err)
	}

	if escrowStatus.IsFinal() {
		return nil, fmt.Errorf("%w: invalid escrow status %s", ErrInvalidCampaign, escrowStatus)
	}

	manifest, err := DownloadCampaignManifest(s.httpClient, escrow.Manifest, escrow.ManifestHash)
	if err != nil {
		return nil, err
	}

	if !s.clientFactory.IsSupported(manifest.Exchange) {
		return nil, fmt.Errorf("%w: exchange %s is not supported", ErrInvalidCampaign, manifest.Exchange)
	}

	symbol, details, err := manifest.ExtractCampaignDetails()
	if err != nil {
		return nil, err
	}

	tokenInfo, err := s.escrowContract.GetTokenInfo(ctx, chainID, escrow.Token)
	if err != nil {
		return nil, fmt.Errorf("get fund token info: %w", err)
	}

	fundedAmount, err := decimal.NewFromString(escrow.TotalFundedAmount)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid fund amount", ErrInvalidCampaign)
	}

	campaign := &datamodel.Campaign{
		ID:                uuid.NewString(),
		ChainID:           chainID,
		Address:           campaignAddress,
		Type:              datamodel.CampaignType(manifest.Type),
		ExchangeName:      manifest.Exchange,
		Symbol:            symbol,
		StartDate:         manifest.StartDate,
		EndDate:           manifest.EndDate,
		FundAmount:        fundedAmount.Shift(-tokenInfo.Decimals).String(),
		FundToken:         tokenInfo.Symbol,
		FundTokenDecimals: tokenInfo.Decimals,
		Details:           details,
		Status:            datamodel.CampaignStatusActive,
	}

	if err := s.campaignStore.Insert(ctx, campaign); err != nil {
		if errors.Is(err, database.ErrDuplicateKey) {
			// created concurrently, use the stored one
			return s.campaignStore.FindOneByChainIdAndAddress(ctx, chainID, campaignAddress)
		}

		return nil, err
	}

	return campaign, nil
}
