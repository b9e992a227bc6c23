package exchanges

import (
	"context"
	"errors"
)

type TradingSide string

const (
	TradingSideBuy  TradingSide = "buy"
	TradingSideSell TradingSide = "sell"
)

type TakerOrMakerFlag string

const (
	FlagTaker TakerOrMakerFlag = "taker"
	FlagMaker TakerOrMakerFlag = "maker"
)

// Trade is one fill from a participant's account trade history,
// normalized across exchanges.
type Trade struct {
	ID           string
	Timestamp    int64 // unix ms
	Symbol       string
	Side         TradingSide
	TakerOrMaker TakerOrMakerFlag
	Price        float64
	Amount       float64
	Cost         float64 // quote-denominated trade value
}

// Balance is a snapshot of the account's total balances per asset symbol.
type Balance struct {
	Total map[string]float64
}

// Credentials are participant-scoped exchange API credentials.
type Credentials struct {
	APIKey    string
	APISecret string
}

// APIClient is the per-participant exchange access contract.
// FetchMyTrades returns trades with timestamp >= sinceMs in ascending
// timestamp order; one call returns one page, the caller paginates.
type APIClient interface {
	FetchBalance(ctx context.Context) (*Balance, error)
	FetchDepositAddress(ctx context.Context, symbol string) (string, error)
	FetchMyTrades(ctx context.Context, symbol string, sinceMs int64) ([]Trade, error)
}

// ClientFactory creates an APIClient for the given exchange with the
// given participant credentials.
type ClientFactory interface {
	Create(exchangeName string, creds Credentials) (APIClient, error)
	IsSupported(exchangeName string) bool
}

var (
	ErrExchangeNotSupported = errors.New("exchange is not supported")
	ErrAPIAccess            = errors.New("exchange rejected the api credentials")
)
