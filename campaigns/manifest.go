package campaigns

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/hashicorp/go-retryablehttp"

	"recording-oracle/goutils/datamodel"
)

// CampaignManifest is the JSON document the escrow's manifestUrl points
// to. Metric target fields are populated depending on the campaign type.
type CampaignManifest struct {
	Type      string    `json:"type" validate:"required"`
	Exchange  string    `json:"exchange" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtfield=StartDate"`

	Pair   string `json:"pair,omitempty"`
	Symbol string `json:"symbol,omitempty"`

	DailyVolumeTarget    float64 `json:"daily_volume_target,omitempty"`
	DailyBalanceTarget   float64 `json:"daily_balance_target,omitempty"`
	MinimumBalanceTarget float64 `json:"minimum_balance_target,omitempty"`
}

var (
	manifestValidator = validator.New()

	tradingPairPattern = regexp.MustCompile(`^[A-Z0-9]{3,12}/[A-Z0-9]{3,12}$`)
	tokenSymbolPattern = regexp.MustCompile(`^[A-Z0-9]{3,12}$`)
)

var (
	ErrManifestDownloadFailed = errors.New("failed to download manifest")
	ErrManifestHashMismatch   = errors.New("invalid manifest hash")
	ErrInvalidManifestSchema  = errors.New("invalid manifest schema")
)

// DownloadCampaignManifest fetches the manifest, verifies its sha1
// digest against the hash recorded on the escrow and validates the
// schema for the declared campaign type.
func DownloadCampaignManifest(httpClient *retryablehttp.Client, url string, manifestHash string) (*CampaignManifest, error) {
	resp, err := httpClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestDownloadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrManifestDownloadFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrManifestDownloadFailed, err)
	}

	if CalculateManifestHash(body) != strings.ToLower(manifestHash) {
		return nil, ErrManifestHashMismatch
	}

	manifest := new(CampaignManifest)
	if err := json.Unmarshal(body, manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifestSchema, err)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}

	return manifest, nil
}

func CalculateManifestHash(manifest []byte) string {
	digest := sha1.Sum(manifest)

	return hex.EncodeToString(digest[:])
}

// Validate checks the base schema plus the fields required by the
// manifest's campaign type.
func (m *CampaignManifest) Validate() error {
	if err := manifestValidator.Struct(m); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidManifestSchema, err)
	}

	switch datamodel.CampaignType(m.Type) {
	case datamodel.CampaignTypeMarketMaking:
		if !tradingPairPattern.MatchString(m.Pair) {
			return fmt.Errorf("%w: invalid trading pair", ErrInvalidManifestSchema)
		}
		if m.DailyVolumeTarget <= 0 {
			return fmt.Errorf("%w: invalid daily volume target", ErrInvalidManifestSchema)
		}
	case datamodel.CampaignTypeHolding:
		if !tokenSymbolPattern.MatchString(m.Symbol) {
			return fmt.Errorf("%w: invalid token symbol", ErrInvalidManifestSchema)
		}
		if m.DailyBalanceTarget <= 0 {
			return fmt.Errorf("%w: invalid daily balance target", ErrInvalidManifestSchema)
		}
	case datamodel.CampaignTypeThreshold:
		if !tokenSymbolPattern.MatchString(m.Symbol) {
			return fmt.Errorf("%w: invalid token symbol", ErrInvalidManifestSchema)
		}
		if m.MinimumBalanceTarget <= 0 {
			return fmt.Errorf("%w: invalid minimum balance target", ErrInvalidManifestSchema)
		}
	default:
		return fmt.Errorf("%w: unknown campaign type %s", ErrInvalidManifestSchema, m.Type)
	}

	return nil
}

// ExtractCampaignDetails maps the type-specific manifest fields onto
// the traded symbol and the campaign detail targets.
func (m *CampaignManifest) ExtractCampaignDetails() (string, datamodel.CampaignDetails, error) {
	switch datamodel.CampaignType(m.Type) {
	case datamodel.CampaignTypeMarketMaking:
		return m.Pair, datamodel.CampaignDetails{DailyVolumeTarget: m.DailyVolumeTarget}, nil
	case datamodel.CampaignTypeHolding:
		return m.Symbol, datamodel.CampaignDetails{DailyBalanceTarget: m.DailyBalanceTarget}, nil
	case datamodel.CampaignTypeThreshold:
		return m.Symbol, datamodel.CampaignDetails{MinimumBalanceTarget: m.MinimumBalanceTarget}, nil
	default:
		return "", datamodel.CampaignDetails{}, fmt.Errorf("%w: unknown campaign type %s", ErrInvalidManifestSchema, m.Type)
	}
}
