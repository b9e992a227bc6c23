package escrowcontract

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"
)

const erc20ABIJSON = `[
	{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"}
]`

var erc20ABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		log.WithError(err).Fatal("failed to parse erc20 abi")
	}

	return parsed
}()

// TokenInfo is the fund token metadata read from its ERC-20 contract.
type TokenInfo struct {
	Symbol   string
	Decimals int32
}

// token metadata never changes, cache it for the process lifetime
type tokenInfoCache struct {
	mu    sync.Mutex
	byKey map[string]TokenInfo
}

func newTokenInfoCache() *tokenInfoCache {
	return &tokenInfoCache{byKey: make(map[string]TokenInfo)}
}

func (c *tokenInfoCache) get(key string) (TokenInfo, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.byKey[key]

	return info, ok
}

func (c *tokenInfoCache) put(key string, info TokenInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.byKey[key] = info
}

// GetTokenInfo reads symbol and decimals of an ERC-20 token.
func (s *Service) GetTokenInfo(ctx context.Context, chainID int64, tokenAddress string) (TokenInfo, error) {
	cacheKey := fmt.Sprintf("%d:%s", chainID, strings.ToLower(tokenAddress))
	if info, ok := s.tokenInfo.get(cacheKey); ok {
		return info, nil
	}

	backend, err := s.backend(chainID)
	if err != nil {
		return TokenInfo{}, err
	}

	token := bind.NewBoundContract(common.HexToAddress(tokenAddress), erc20ABI, backend.client, backend.client, backend.client)

	var symbolOut []interface{}
	if err := token.Call(&bind.CallOpts{Context: ctx}, &symbolOut, "symbol"); err != nil {
		return TokenInfo{}, fmt.Errorf("read token symbol: %w", err)
	}

	var decimalsOut []interface{}
	if err := token.Call(&bind.CallOpts{Context: ctx}, &decimalsOut, "decimals"); err != nil {
		return TokenInfo{}, fmt.Errorf("read token decimals: %w", err)
	}

	info := TokenInfo{
		Symbol:   symbolOut[0].(string),
		Decimals: int32(decimalsOut[0].(uint8)),
	}

	s.tokenInfo.put(cacheKey, info)

	return info, nil
}
