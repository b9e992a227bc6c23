package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"recording-oracle/goutils/datamodel"
)

var testPool *Pool

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get connection string: %v\n", err)
		os.Exit(1)
	}

	testPool, err = NewPool(ctx, dsn, 10)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create pool: %v\n", err)
		os.Exit(1)
	}

	if err := RunMigrations(ctx, testPool); err != nil {
		fmt.Fprintf(os.Stderr, "failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	testPool.Close()

	if err := container.Terminate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to terminate container: %v\n", err)
	}

	os.Exit(code)
}

func cleanTables(t *testing.T) {
	t.Helper()

	_, err := testPool.Exec(context.Background(),
		`TRUNCATE campaigns, participants, campaign_participants, volume_stats`)
	require.NoError(t, err, "failed to truncate tables")
}

func testCampaign() *datamodel.Campaign {
	start := time.Now().UTC().Add(-24 * time.Hour).Truncate(time.Millisecond)

	return &datamodel.Campaign{
		ID:                uuid.NewString(),
		ChainID:           80002,
		Address:           "0x" + uuid.NewString()[:8],
		Type:              datamodel.CampaignTypeMarketMaking,
		ExchangeName:      "binance",
		Symbol:            "HMT/USDT",
		StartDate:         start,
		EndDate:           start.Add(7 * 24 * time.Hour),
		FundAmount:        "700",
		FundToken:         "HMT",
		FundTokenDecimals: 6,
		Details:           datamodel.CampaignDetails{DailyVolumeTarget: 1000},
		Status:            datamodel.CampaignStatusActive,
	}
}

func testParticipant() *datamodel.Participant {
	return &datamodel.Participant{
		ID:         uuid.NewString(),
		EvmAddress: "0x" + uuid.NewString()[:8],
		APIKey:     "api-key",
		APISecret:  "api-secret",
	}
}
