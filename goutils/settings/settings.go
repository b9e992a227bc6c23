package settings

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"
)

type (
	RateLimiter struct {
		Burst          int `json:"burst"`
		RequestsPerSec int `json:"req_per_sec"`
	}

	Signer struct {
		AccountAddress string `json:"accountAddress" validate:"required"`
		PrivateKey     string `json:"privateKey"`
	}

	Chain struct {
		ChainID        int64  `json:"chain_id" validate:"required"`
		RPCURL         string `json:"rpc_url" validate:"required"`
		SubgraphAPIURL string `json:"subgraph_api_url"`
	}

	Database struct {
		DSN      string `json:"dsn" validate:"required"`
		PoolSize int    `json:"pool_size"`
	}

	Redis struct {
		Host     string `json:"host" validate:"required"`
		Port     int    `json:"port" validate:"required"`
		Db       int    `json:"db"`
		Password string `json:"password"`
		PoolSize int    `json:"pool_size"`
	}

	ResultsStorage struct {
		Endpoint        string `json:"endpoint"`
		Region          string `json:"region" validate:"required"`
		Bucket          string `json:"bucket" validate:"required"`
		AccessKeyID     string `json:"access_key_id"`
		SecretAccessKey string `json:"secret_access_key"`
		PublicBaseURL   string `json:"public_base_url" validate:"required"`
	}

	PriceFeed struct {
		URL     string `json:"url" validate:"required"`
		APIKey  string `json:"api_key"`
		Timeout int    `json:"timeout"`
	}

	Exchange struct {
		Enabled     bool         `json:"enabled"`
		RateLimiter *RateLimiter `json:"rate_limit,omitempty"`
	}

	Campaigns struct {
		ProgressCron        string `json:"progress_cron"`
		FinishTrackingCron  string `json:"finish_tracking_cron"`
		DiscoveryCron       string `json:"discovery_cron"`
		InterimRefreshCron  string `json:"interim_refresh_cron"`
		AbuseSampleSize     int    `json:"abuse_sample_size"`
		AbuseSampleCapacity int    `json:"abuse_sample_capacity"`
		BulkPayoutMaxItems  int    `json:"bulk_payout_max_items"`
	}

	HTTPClient struct {
		MaxIdleConns        int `json:"max_idle_conns"`
		MaxConnsPerHost     int `json:"max_conns_per_host"`
		MaxIdleConnsPerHost int `json:"max_idle_conns_per_host"`
		IdleConnTimeout     int `json:"idle_conn_timeout"`
		ConnectionTimeout   int `json:"connection_timeout"`
	}

	Healthcheck struct {
		Port     int    `json:"port"`
		Endpoint string `json:"endpoint"`
	}
)

type SettingsObj struct {
	InstanceId     string               `json:"instance_id" validate:"required"`
	Chains         []*Chain             `json:"chains" validate:"required,dive"`
	Database       *Database            `json:"database" validate:"required"`
	Redis          *Redis               `json:"redis" validate:"required"`
	ResultsStorage *ResultsStorage      `json:"results_storage" validate:"required"`
	PriceFeed      *PriceFeed           `json:"price_feed" validate:"required"`
	Exchanges      map[string]*Exchange `json:"exchanges" validate:"required"`
	Signer         *Signer              `json:"signer" validate:"required"`
	Campaigns      *Campaigns           `json:"campaigns" validate:"required"`
	HttpClient     *HTTPClient          `json:"http_client" validate:"required"`
	Healthcheck    *Healthcheck         `json:"healthcheck" validate:"required"`
}

// ParseSettings parses the settings.json file and returns a SettingsObj
func ParseSettings() *SettingsObj {
	log.Debug("parsing settings")

	v := validator.New()

	dir := strings.TrimSuffix(os.Getenv("CONFIG_PATH"), "/")
	settingsFilePath := dir + "/settings.json"

	settingsObj := new(SettingsObj)

	log.Info("reading settings:", settingsFilePath)

	data, err := os.ReadFile(settingsFilePath)
	if err != nil {
		log.Error("cannot read the file:", err)
		panic(err)
	}

	err = json.Unmarshal(data, settingsObj)
	if err != nil {
		log.Error("cannot unmarshal the settings json ", err)
		panic(err)
	}

	err = v.Struct(settingsObj)
	if err != nil {
		log.WithError(err).Fatal("invalid settings object")
	}

	SetDefaults(settingsObj)

	err = gi.Inject(settingsObj)
	if err != nil {
		log.Fatal("cannot inject the settings object", err)
	}

	return settingsObj
}

// SetDefaults sets the default values for the settings object
// add default values in this function if required
func SetDefaults(settingsObj *SettingsObj) {
	privKey := os.Getenv("PRIVATE_KEY")
	if privKey != "" {
		settingsObj.Signer.PrivateKey = privKey
	}

	dbDSN := os.Getenv("DATABASE_URL")
	if dbDSN != "" {
		settingsObj.Database.DSN = dbDSN
	}

	if settingsObj.Database.PoolSize == 0 {
		settingsObj.Database.PoolSize = 10
	}

	accessKey := os.Getenv("RESULTS_STORAGE_ACCESS_KEY_ID")
	if accessKey != "" {
		settingsObj.ResultsStorage.AccessKeyID = accessKey
	}

	secretKey := os.Getenv("RESULTS_STORAGE_SECRET_ACCESS_KEY")
	if secretKey != "" {
		settingsObj.ResultsStorage.SecretAccessKey = secretKey
	}

	settingsObj.ResultsStorage.PublicBaseURL = strings.TrimSuffix(settingsObj.ResultsStorage.PublicBaseURL, "/")

	if settingsObj.Campaigns.ProgressCron == "" {
		settingsObj.Campaigns.ProgressCron = "*/30 * * * *"
	}

	if settingsObj.Campaigns.FinishTrackingCron == "" {
		settingsObj.Campaigns.FinishTrackingCron = "*/3 * * * *"
	}

	if settingsObj.Campaigns.DiscoveryCron == "" {
		settingsObj.Campaigns.DiscoveryCron = "*/10 * * * *"
	}

	if settingsObj.Campaigns.InterimRefreshCron == "" {
		settingsObj.Campaigns.InterimRefreshCron = "*/10 * * * *"
	}

	if settingsObj.Campaigns.AbuseSampleSize == 0 {
		settingsObj.Campaigns.AbuseSampleSize = 5
	}

	if settingsObj.Campaigns.AbuseSampleCapacity == 0 {
		settingsObj.Campaigns.AbuseSampleCapacity = 10000
	}

	if settingsObj.Campaigns.BulkPayoutMaxItems == 0 {
		settingsObj.Campaigns.BulkPayoutMaxItems = 100
	}

	if settingsObj.Healthcheck.Endpoint == "" {
		settingsObj.Healthcheck.Endpoint = "/health"
	}

	if settingsObj.Healthcheck.Port == 0 {
		settingsObj.Healthcheck.Port = 9000
	}
}
