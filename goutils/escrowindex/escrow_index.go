package escrowindex

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"

	"recording-oracle/goutils/httpclient"
	"recording-oracle/goutils/settings"
)

// ErrEscrowNotFound means the index has no data for the escrow address.
var ErrEscrowNotFound = errors.New("escrow not found")

// EscrowData is the indexed view of one escrow, as served by the
// chain's escrow index API. Index data lags the chain slightly, so
// status-sensitive decisions must use live contract reads instead.
type EscrowData struct {
	ChainID           int64     `json:"chain_id"`
	Address           string    `json:"address"`
	Status            string    `json:"status"`
	Token             string    `json:"token"`
	TotalFundedAmount string    `json:"total_funded_amount"`
	Manifest          string    `json:"manifest"`
	ManifestHash      string    `json:"manifest_hash"`
	RecordingOracle   string    `json:"recording_oracle"`
	CreatedAt         time.Time `json:"created_at"`
}

// ListQuery filters the escrow listing used by campaign discovery.
type ListQuery struct {
	ChainID         int64
	RecordingOracle string
	Status          string
	From            time.Time
	First           int
}

type Client struct {
	httpClient  *retryablehttp.Client
	urlsByChain map[int64]string
}

func InitClient(settingsObj *settings.SettingsObj) *Client {
	urlsByChain := make(map[int64]string)
	for _, chain := range settingsObj.Chains {
		if chain.SubgraphAPIURL != "" {
			urlsByChain[chain.ChainID] = strings.TrimSuffix(chain.SubgraphAPIURL, "/")
		}
	}

	client := &Client{
		httpClient:  httpclient.GetDefaultHTTPClient(settingsObj),
		urlsByChain: urlsByChain,
	}

	if err := gi.Inject(client); err != nil {
		log.WithError(err).Fatal("failed to inject escrow index client")
	}

	return client
}

// GetEscrow returns the indexed escrow or ErrEscrowNotFound.
func (c *Client) GetEscrow(ctx context.Context, chainID int64, address string) (*EscrowData, error) {
	baseURL, err := c.chainURL(chainID)
	if err != nil {
		return nil, err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/escrows/"+address, nil)
	if err != nil {
		return nil, fmt.Errorf("create escrow request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch escrow: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrEscrowNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch escrow: status %d", resp.StatusCode)
	}

	escrow := new(EscrowData)
	if err := json.NewDecoder(resp.Body).Decode(escrow); err != nil {
		return nil, fmt.Errorf("decode escrow response: %w", err)
	}

	return escrow, nil
}

// GetEscrows lists escrows assigned to the oracle, oldest first.
func (c *Client) GetEscrows(ctx context.Context, query ListQuery) ([]*EscrowData, error) {
	baseURL, err := c.chainURL(query.ChainID)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("recording_oracle", query.RecordingOracle)
	params.Set("order_direction", "asc")
	if query.Status != "" {
		params.Set("status", query.Status)
	}
	if !query.From.IsZero() {
		params.Set("from", query.From.UTC().Format(time.RFC3339))
	}
	if query.First > 0 {
		params.Set("first", strconv.Itoa(query.First))
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/escrows?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create escrows request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list escrows: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list escrows: status %d", resp.StatusCode)
	}

	escrows := make([]*EscrowData, 0)
	if err := json.NewDecoder(resp.Body).Decode(&escrows); err != nil {
		return nil, fmt.Errorf("decode escrows response: %w", err)
	}

	return escrows, nil
}

func (c *Client) chainURL(chainID int64) (string, error) {
	baseURL, ok := c.urlsByChain[chainID]
	if !ok {
		return "", fmt.Errorf("no escrow index configured for chain %d", chainID)
	}

	return baseURL, nil
}
