package exchanges

import (
	log "github.com/sirupsen/logrus"
	"github.com/swagftw/gi"
	"golang.org/x/time/rate"

	"recording-oracle/goutils/settings"
)

const ExchangeNameBinance = "binance"

// Factory builds exchange API clients for enabled exchanges. Rate limiters
// are shared per exchange so all participant clients together stay within
// the exchange-wide request budget.
type Factory struct {
	settingsObj *settings.SettingsObj
	limiters    map[string]*rate.Limiter
}

var _ ClientFactory = (*Factory)(nil)

func InitFactory(settingsObj *settings.SettingsObj) *Factory {
	limiters := make(map[string]*rate.Limiter)

	for exchangeName, exchangeConfig := range settingsObj.Exchanges {
		tps := rate.Limit(10)
		burst := 10

		if exchangeConfig.RateLimiter != nil {
			burst = exchangeConfig.RateLimiter.Burst

			if exchangeConfig.RateLimiter.RequestsPerSec == -1 {
				tps = rate.Inf
				burst = 0
			} else {
				tps = rate.Limit(exchangeConfig.RateLimiter.RequestsPerSec)
			}
		}

		log.Infof("rate limit configured for exchange %s at %v TPS with a burst of %d", exchangeName, tps, burst)

		limiters[exchangeName] = rate.NewLimiter(tps, burst)
	}

	factory := &Factory{
		settingsObj: settingsObj,
		limiters:    limiters,
	}

	err := gi.Inject(factory)
	if err != nil {
		log.WithError(err).Fatal("failed to inject exchange client factory")
	}

	return factory
}

func (f *Factory) IsSupported(exchangeName string) bool {
	exchangeConfig, ok := f.settingsObj.Exchanges[exchangeName]

	return ok && exchangeConfig.Enabled
}

func (f *Factory) Create(exchangeName string, creds Credentials) (APIClient, error) {
	if !f.IsSupported(exchangeName) {
		return nil, ErrExchangeNotSupported
	}

	switch exchangeName {
	case ExchangeNameBinance:
		return NewBinanceClient(creds, f.limiters[exchangeName]), nil
	default:
		return nil, ErrExchangeNotSupported
	}
}
