package policy

import (
	"bookbyblock-backend/config"
	"bookbyblock-backend/ledger"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const bpsDenominator = 10000

// Policy holds the anti-scalping constants. They are configuration, not
// hard-coded: resale caps and fee rates differ per deployment.
type Policy struct {
	MaxResales     int
	MaxMarkupBps   int64
	PlatformFeeBps int64
	FeeRecipient   string
}

func FromConfig() Policy {
	return Policy{
		MaxResales:     viper.GetInt(config.MaxResales),
		MaxMarkupBps:   viper.GetInt64(config.MaxMarkupBps),
		PlatformFeeBps: viper.GetInt64(config.PlatformFeeBps),
		FeeRecipient:   viper.GetString(config.FeeRecipient),
	}
}

// MaxResalePrice is the highest offer allowed over the last transfer price.
func (p Policy) MaxResalePrice(lastPrice decimal.Decimal) decimal.Decimal {
	return lastPrice.Mul(decimal.NewFromInt(bpsDenominator + p.MaxMarkupBps)).
		Div(decimal.NewFromInt(bpsDenominator))
}

// ValidateResale checks the resale-count cap and the markup cap. Order
// matters for error reporting: an exhausted ticket reports the limit even
// when the price is also too high.
func (p Policy) ValidateResale(resaleCount int, lastPrice, offered decimal.Decimal) error {
	if resaleCount >= p.MaxResales {
		return fmt.Errorf("validateResale: ticket resold %d times: %w", resaleCount, ledger.ErrResaleLimitExceeded)
	}

	if offered.GreaterThan(p.MaxResalePrice(lastPrice)) {
		return fmt.Errorf("validateResale: offered %s over cap %s: %w", offered, p.MaxResalePrice(lastPrice), ledger.ErrPriceExceedsMarkup)
	}

	return nil
}

// PlatformFee computes the cut routed to the fee recipient on mint.
// Truncated at 18 decimal places, matching integer base-unit math.
func (p Policy) PlatformFee(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(p.PlatformFeeBps)).
		Div(decimal.NewFromInt(bpsDenominator)).
		RoundDown(18)
}

// SellerProceeds is what remains after the platform fee.
func (p Policy) SellerProceeds(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.PlatformFee(price))
}
