package mock

import (
	"context"
	"math/big"

	"recording-oracle/goutils/escrowcontract"
	"recording-oracle/goutils/escrowindex"
)

type EscrowContractMock struct {
	GetStatusMock                 func(ctx context.Context, chainID int64, address string) (escrowcontract.Status, error)
	GetIntermediateResultsUrlMock func(ctx context.Context, chainID int64, address string) (string, error)
	StoreResultsMock              func(ctx context.Context, chainID int64, address string, url string, hash string, fundsToReserve *big.Int) (string, error)
	GetTokenInfoMock              func(ctx context.Context, chainID int64, tokenAddress string) (escrowcontract.TokenInfo, error)
}

func (m EscrowContractMock) GetStatus(ctx context.Context, chainID int64, address string) (escrowcontract.Status, error) {
	return m.GetStatusMock(ctx, chainID, address)
}

func (m EscrowContractMock) GetIntermediateResultsUrl(ctx context.Context, chainID int64, address string) (string, error) {
	return m.GetIntermediateResultsUrlMock(ctx, chainID, address)
}

func (m EscrowContractMock) StoreResults(ctx context.Context, chainID int64, address string, url string, hash string, fundsToReserve *big.Int) (string, error) {
	return m.StoreResultsMock(ctx, chainID, address, url, hash, fundsToReserve)
}

func (m EscrowContractMock) GetTokenInfo(ctx context.Context, chainID int64, tokenAddress string) (escrowcontract.TokenInfo, error) {
	return m.GetTokenInfoMock(ctx, chainID, tokenAddress)
}

type EscrowIndexMock struct {
	GetEscrowMock  func(ctx context.Context, chainID int64, address string) (*escrowindex.EscrowData, error)
	GetEscrowsMock func(ctx context.Context, query escrowindex.ListQuery) ([]*escrowindex.EscrowData, error)
}

func (m EscrowIndexMock) GetEscrow(ctx context.Context, chainID int64, address string) (*escrowindex.EscrowData, error) {
	return m.GetEscrowMock(ctx, chainID, address)
}

func (m EscrowIndexMock) GetEscrows(ctx context.Context, query escrowindex.ListQuery) ([]*escrowindex.EscrowData, error) {
	return m.GetEscrowsMock(ctx, query)
}
