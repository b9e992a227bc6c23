package exchanges

import (
	"context"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"golang.org/x/time/rate"
)

// tradesPageLimit is binance's max page size for account trade history.
const tradesPageLimit = 1000

// BinanceClient implements APIClient on top of binance spot REST API.
type BinanceClient struct {
	client  *binance.Client
	limiter *rate.Limiter
}

func NewBinanceClient(creds Credentials, limiter *rate.Limiter) *BinanceClient {
	return &BinanceClient{
		client:  binance.NewClient(creds.APIKey, creds.APISecret),
		limiter: limiter,
	}
}

func (b *BinanceClient) FetchBalance(ctx context.Context) (*Balance, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	account, err := b.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, wrapBinanceErr(err)
	}

	balance := &Balance{Total: make(map[string]float64, len(account.Balances))}

	for _, assetBalance := range account.Balances {
		free, _ := strconv.ParseFloat(assetBalance.Free, 64)
		locked, _ := strconv.ParseFloat(assetBalance.Locked, 64)

		balance.Total[assetBalance.Asset] = free + locked
	}

	return balance, nil
}

func (b *BinanceClient) FetchDepositAddress(ctx context.Context, symbol string) (string, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	res, err := b.client.NewGetDepositAddressService().Coin(symbol).Do(ctx)
	if err != nil {
		return "", wrapBinanceErr(err)
	}

	return res.Address, nil
}

func (b *BinanceClient) FetchMyTrades(ctx context.Context, symbol string, sinceMs int64) ([]Trade, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	rawTrades, err := b.client.NewListTradesService().
		Symbol(toBinanceSymbol(symbol)).
		StartTime(sinceMs).
		Limit(tradesPageLimit).
		Do(ctx)
	if err != nil {
		return nil, wrapBinanceErr(err)
	}

	trades := make([]Trade, 0, len(rawTrades))

	for _, rawTrade := range rawTrades {
		price, _ := strconv.ParseFloat(rawTrade.Price, 64)
		amount, _ := strconv.ParseFloat(rawTrade.Quantity, 64)
		cost, _ := strconv.ParseFloat(rawTrade.QuoteQuantity, 64)

		side := TradingSideSell
		if rawTrade.IsBuyer {
			side = TradingSideBuy
		}

		flag := FlagTaker
		if rawTrade.IsMaker {
			flag = FlagMaker
		}

		trades = append(trades, Trade{
			ID:           strconv.FormatInt(rawTrade.ID, 10),
			Timestamp:    rawTrade.Time,
			Symbol:       symbol,
			Side:         side,
			TakerOrMaker: flag,
			Price:        price,
			Amount:       amount,
			Cost:         cost,
		})
	}

	return trades, nil
}

// toBinanceSymbol converts a "BASE/QUOTE" pair to binance's concatenated form.
func toBinanceSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

func wrapBinanceErr(err error) error {
	apiErr, ok := err.(*common.APIError)
	if !ok {
		return err
	}

	// -2014 invalid api key format, -2015 rejected key/ip/permissions
	if apiErr.Code == -2014 || apiErr.Code == -2015 {
		return ErrAPIAccess
	}

	return err
}
