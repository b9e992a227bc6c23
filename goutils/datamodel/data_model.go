package datamodel

import (
	"time"
)

type CampaignType string

const (
	CampaignTypeMarketMaking CampaignType = "MARKET_MAKING"
	CampaignTypeHolding      CampaignType = "HOLDING"
	CampaignTypeThreshold    CampaignType = "THRESHOLD"
)

type CampaignStatus string

const (
	CampaignStatusActive            CampaignStatus = "active"
	CampaignStatusPendingCompletion CampaignStatus = "pending_completion"
	CampaignStatusCompleted         CampaignStatus = "completed"
	CampaignStatusCancelled         CampaignStatus = "cancelled"
)

// IsTerminal reports whether the status can never be left again.
func (s CampaignStatus) IsTerminal() bool {
	return s == CampaignStatusCompleted || s == CampaignStatusCancelled
}

// CampaignDetails holds the type-specific campaign targets parsed
// from the manifest. Only the fields relevant for the campaign type are set.
type CampaignDetails struct {
	DailyVolumeTarget    float64 `json:"daily_volume_target,omitempty"`
	DailyBalanceTarget   float64 `json:"daily_balance_target,omitempty"`
	MinimumBalanceTarget float64 `json:"minimum_balance_target,omitempty"`
}

// Campaign is the locally tracked view of an on-chain escrow that funds
// a liquidity campaign. (chainID, address) is unique.
type Campaign struct {
	ID                string
	ChainID           int64
	Address           string
	Type              CampaignType
	ExchangeName      string
	Symbol            string
	StartDate         time.Time
	EndDate           time.Time
	FundAmount        string
	FundToken         string
	FundTokenDecimals int32
	Details           CampaignDetails
	LastResultsAt     *time.Time
	Status            CampaignStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Participant is one campaign participant together with the exchange
// API credentials needed to inspect their account activity.
type Participant struct {
	ID         string
	EvmAddress string
	JoinedAt   time.Time
	APIKey     string
	APISecret  string
}

// ParticipantOutcome is one participant's recorded result for one
// progress window. Metric fields are type-specific and optional.
type ParticipantOutcome struct {
	Address      string   `json:"address"`
	Score        float64  `json:"score"`
	TotalVolume  *float64 `json:"total_volume,omitempty"`
	TokenBalance *float64 `json:"token_balance,omitempty"`
}

// ParticipantOutcomesBatch groups outcomes into chunks that fit into a
// single on-chain bulk payout call.
type ParticipantOutcomesBatch struct {
	ID      string               `json:"id"`
	Results []ParticipantOutcome `json:"results"`
}

// ProgressMeta carries run-level aggregates collected by a progress
// checker across all non-abuse participants.
type ProgressMeta struct {
	TotalVolume  *float64 `json:"total_volume,omitempty"`
	TotalBalance *float64 `json:"total_balance,omitempty"`
	TotalScore   *float64 `json:"total_score,omitempty"`
}

// IntermediateResult is one recorded progress window. Immutable once
// appended to the ledger; To of the last entry is the planning watermark.
type IntermediateResult struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
	ProgressMeta
	ReservedFunds               string                     `json:"reserved_funds"`
	ParticipantsOutcomesBatches []ParticipantOutcomesBatch `json:"participants_outcomes_batches"`
}

// IntermediateResultsData is the per-campaign append-only results ledger
// that gets content-addressed and pointed to from the escrow contract.
type IntermediateResultsData struct {
	ChainID  int64                `json:"chain_id"`
	Address  string               `json:"address"`
	Exchange string               `json:"exchange"`
	Symbol   string               `json:"symbol"`
	Results  []IntermediateResult `json:"results"`
}

// LastResult returns the most recent recorded window, or nil.
func (d *IntermediateResultsData) LastResult() *IntermediateResult {
	if d == nil || len(d.Results) == 0 {
		return nil
	}

	return &d.Results[len(d.Results)-1]
}

// CampaignProgress is the outcome of checking one campaign over one period,
// before it is turned into an IntermediateResult.
type CampaignProgress struct {
	From                 time.Time            `json:"from"`
	To                   time.Time            `json:"to"`
	ParticipantsOutcomes []ParticipantOutcome `json:"participants_outcomes"`
	Meta                 ProgressMeta         `json:"meta"`
}

// VolumeStat is a best-effort denormalized rollup of generated volume
// per campaign and period, used for reporting only.
type VolumeStat struct {
	ExchangeName    string
	CampaignAddress string
	PeriodStart     time.Time
	PeriodEnd       time.Time
	Volume          string
	VolumeUsd       string
}
