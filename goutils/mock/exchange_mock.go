package mock

import (
	"context"

	"recording-oracle/exchanges"
)

type ExchangeClientMock struct {
	FetchBalanceMock        func(ctx context.Context) (*exchanges.Balance, error)
	FetchDepositAddressMock func(ctx context.Context, symbol string) (string, error)
	FetchMyTradesMock       func(ctx context.Context, symbol string, sinceMs int64) ([]exchanges.Trade, error)
}

func (m ExchangeClientMock) FetchBalance(ctx context.Context) (*exchanges.Balance, error) {
	return m.FetchBalanceMock(ctx)
}

func (m ExchangeClientMock) FetchDepositAddress(ctx context.Context, symbol string) (string, error) {
	return m.FetchDepositAddressMock(ctx, symbol)
}

func (m ExchangeClientMock) FetchMyTrades(ctx context.Context, symbol string, sinceMs int64) ([]exchanges.Trade, error) {
	return m.FetchMyTradesMock(ctx, symbol, sinceMs)
}

type ClientFactoryMock struct {
	CreateMock      func(exchangeName string, creds exchanges.Credentials) (exchanges.APIClient, error)
	IsSupportedMock func(exchangeName string) bool
}

func (m ClientFactoryMock) Create(exchangeName string, creds exchanges.Credentials) (exchanges.APIClient, error) {
	return m.CreateMock(exchangeName, creds)
}

func (m ClientFactoryMock) IsSupported(exchangeName string) bool {
	return m.IsSupportedMock(exchangeName)
}
