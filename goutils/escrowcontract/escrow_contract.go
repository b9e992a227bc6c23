package escrowcontract

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"

	"recording-oracle/goutils/httpclient"
	"recording-oracle/goutils/settings"
)

// Status mirrors the escrow contract status enum.
type Status uint8

const (
	StatusLaunched Status = iota
	StatusPending
	StatusPartial
	StatusPaid
	StatusComplete
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusLaunched:
		return "Launched"
	case StatusPending:
		return "Pending"
	case StatusPartial:
		return "Partial"
	case StatusPaid:
		return "Paid"
	case StatusComplete:
		return "Complete"
	case StatusCancelled:
		return "Cancelled"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(s))
	}
}

// IsFinal reports whether the escrow can never change status again.
func (s Status) IsFinal() bool {
	return s == StatusComplete || s == StatusCancelled
}

const escrowABIJSON = `[
	{"inputs":[],"name":"status","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"intermediateResultsUrl","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"string","name":"_url","type":"string"},{"internalType":"string","name":"_hash","type":"string"},{"internalType":"uint256","name":"_fundsToReserve","type":"uint256"}],"name":"storeResults","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const storeResultsGasLimit = 500000

type chainBackend struct {
	client  *ethclient.Client
	chainID *big.Int

	// guards the pending nonce for sequential storeResults txs
	nonceMu sync.Mutex
}

// Service wraps the escrow contracts of all supported chains behind one
// API keyed by (chainId, address).
type Service struct {
	settingsObj *settings.SettingsObj
	escrowABI   abi.ABI
	privKey     *ecdsa.PrivateKey
	signerAddr  common.Address
	backends    map[int64]*chainBackend

	tokenInfo *tokenInfoCache
}

// InitService dials every configured chain RPC and registers the
// service in the DI container.
func InitService(settingsObj *settings.SettingsObj) *Service {
	escrowABI, err := abi.JSON(strings.NewReader(escrowABIJSON))
	if err != nil {
		log.WithError(err).Fatal("failed to parse escrow abi")
	}

	privKey, err := crypto.HexToECDSA(strings.TrimPrefix(settingsObj.Signer.PrivateKey, "0x"))
	if err != nil {
		log.WithError(err).Fatal("failed to parse signer private key")
	}

	httpClient := httpclient.GetDefaultHTTPClient(settingsObj)

	backends := make(map[int64]*chainBackend)
	for _, chain := range settingsObj.Chains {
		rpcClient, err := rpc.DialOptions(context.Background(), chain.RPCURL, rpc.WithHTTPClient(httpClient.HTTPClient))
		if err != nil {
			log.WithError(err).WithField("chainId", chain.ChainID).Fatal("failed to dial chain rpc")
		}

		backends[chain.ChainID] = &chainBackend{
			client:  ethclient.NewClient(rpcClient),
			chainID: big.NewInt(chain.ChainID),
		}
	}

	service := &Service{
		settingsObj: settingsObj,
		escrowABI:   escrowABI,
		privKey:     privKey,
		signerAddr:  common.HexToAddress(settingsObj.Signer.AccountAddress),
		backends:    backends,
		tokenInfo:   newTokenInfoCache(),
	}

	if err := gi.Inject(service); err != nil {
		log.WithError(err).Fatal("failed to inject escrow contract service")
	}

	return service
}

func (s *Service) backend(chainID int64) (*chainBackend, error) {
	backend, ok := s.backends[chainID]
	if !ok {
		return nil, fmt.Errorf("no rpc backend configured for chain %d", chainID)
	}

	return backend, nil
}

func (s *Service) boundEscrow(backend *chainBackend, address string) *bind.BoundContract {
	return bind.NewBoundContract(common.HexToAddress(address), s.escrowABI, backend.client, backend.client, backend.client)
}

// GetStatus reads the live escrow status from the chain.
func (s *Service) GetStatus(ctx context.Context, chainID int64, address string) (Status, error) {
	backend, err := s.backend(chainID)
	if err != nil {
		return 0, err
	}

	var out []interface{}

	err = s.boundEscrow(backend, address).Call(&bind.CallOpts{Context: ctx}, &out, "status")
	if err != nil {
		return 0, fmt.Errorf("read escrow status: %w", err)
	}

	return Status(out[0].(uint8)), nil
}

// GetIntermediateResultsUrl returns the last stored results URL, empty
// when nothing has been recorded yet.
func (s *Service) GetIntermediateResultsUrl(ctx context.Context, chainID int64, address string) (string, error) {
	backend, err := s.backend(chainID)
	if err != nil {
		return "", err
	}

	var out []interface{}

	err = s.boundEscrow(backend, address).Call(&bind.CallOpts{Context: ctx}, &out, "intermediateResultsUrl")
	if err != nil {
		return "", fmt.Errorf("read intermediate results url: %w", err)
	}

	return out[0].(string), nil
}

// StoreResults records the results pointer on the escrow and reserves
// the window's reward pool. The gas price is fetched right before the
// transaction so a long progress check cannot leave it stale.
func (s *Service) StoreResults(ctx context.Context, chainID int64, address string, url string, hash string, fundsToReserve *big.Int) (string, error) {
	backend, err := s.backend(chainID)
	if err != nil {
		return "", err
	}

	backend.nonceMu.Lock()
	defer backend.nonceMu.Unlock()

	var tx *types.Transaction

	err = backoff.Retry(func() error {
		gasPrice, err := backend.client.SuggestGasPrice(ctx)
		if err != nil {
			return fmt.Errorf("suggest gas price: %w", err)
		}

		nonce, err := backend.client.PendingNonceAt(ctx, s.signerAddr)
		if err != nil {
			return fmt.Errorf("get pending nonce: %w", err)
		}

		opts, err := bind.NewKeyedTransactorWithChainID(s.privKey, backend.chainID)
		if err != nil {
			return fmt.Errorf("create transactor: %w", err)
		}

		opts.Context = ctx
		opts.Nonce = big.NewInt(int64(nonce))
		opts.GasPrice = gasPrice
		opts.GasLimit = storeResultsGasLimit

		tx, err = s.boundEscrow(backend, address).Transact(opts, "storeResults", url, hash, fundsToReserve)
		if err != nil {
			return fmt.Errorf("store results tx: %w", err)
		}

		return nil
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3))
	if err != nil {
		return "", err
	}

	log.WithField("txHash", tx.Hash().Hex()).
		WithField("campaignAddress", address).
		Info("results stored on escrow")

	return tx.Hash().Hex(), nil
}
