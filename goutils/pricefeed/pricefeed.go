package pricefeed

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"

	"recording-oracle/goutils/httpclient"
	"recording-oracle/goutils/settings"
)

// ErrPriceNotAvailable means the feed has no USD quote for the symbol.
var ErrPriceNotAvailable = errors.New("token price not available")

// Service quotes token prices in USD for reporting rollups.
type Service interface {
	GetTokenPriceUsd(symbol string) (float64, error)
}

type Client struct {
	httpClient *retryablehttp.Client
	baseURL    string
}

func InitPriceFeed(settingsObj *settings.SettingsObj) *Client {
	client := &Client{
		httpClient: httpclient.GetDefaultHTTPClient(settingsObj),
		baseURL:    strings.TrimSuffix(settingsObj.PriceFeed.URL, "/"),
	}

	if err := gi.Inject(client); err != nil {
		log.WithError(err).Fatal("failed to inject price feed client")
	}

	return client
}

var _ Service = (*Client)(nil)

// GetTokenPriceUsd returns the current USD price of the symbol.
// Unknown symbols map to ErrPriceNotAvailable.
func (c *Client) GetTokenPriceUsd(symbol string) (float64, error) {
	url := fmt.Sprintf("%s/price?symbol=%s&convert=USD", c.baseURL, strings.ToUpper(symbol))

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return 0, fmt.Errorf("fetch token price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return 0, ErrPriceNotAvailable
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("fetch token price: status %d", resp.StatusCode)
	}

	priceResp := new(struct {
		Symbol   string   `json:"symbol"`
		PriceUsd *float64 `json:"price_usd"`
	})

	if err := json.NewDecoder(resp.Body).Decode(priceResp); err != nil {
		return 0, fmt.Errorf("decode token price response: %w", err)
	}

	if priceResp.PriceUsd == nil {
		return 0, ErrPriceNotAvailable
	}

	return *priceResp.PriceUsd, nil
}
