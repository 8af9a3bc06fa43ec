package connector

import (
	"context"

	"walletbridge/metrics"
	"walletbridge/provider"
)

const (
	QUERY_ACTIVATE = "activate"
	QUERY_CHAIN_ID = "chain_id"
	QUERY_ACCOUNT  = "account"

	TIER_STATIC = "static"
)

// fallbackTier is one attempt at obtaining a value. onError decides what a
// failed attempt means: a nil result moves on to the next tier, anything else
// ends the chain with that error.
type fallbackTier struct {
	name    string
	query   func(ctx context.Context, p provider.Provider) (any, error)
	onError func(tier string, err error) error
}

func swallow(string, error) error { return nil }

func propagate(tier string, err error) error {
	return NewQueryFailedError(tier, err)
}

func rejectOrSwallow(_ string, err error) error {
	if provider.IsUserRejected(err) {
		return NewUserRejectedRequestError(err)
	}
	return nil
}

func send(method string) func(context.Context, provider.Provider) (any, error) {
	return func(ctx context.Context, p provider.Provider) (any, error) {
		return p.Send(ctx, method)
	}
}

func sendLegacy(method string) func(context.Context, provider.Provider) (any, error) {
	return func(_ context.Context, p provider.Provider) (any, error) {
		return p.SendLegacy(provider.Payload{Method: method})
	}
}

func enable(ctx context.Context, p provider.Provider) (any, error) {
	return p.Enable(ctx)
}

// staticChainID reads the chain id legacy providers expose as properties.
func staticChainID(_ context.Context, p provider.Provider) (any, error) {
	if cached, ok := p.(provider.CachedResultsProvider); ok && cached.IsDapper() {
		v, _ := cached.CachedResult("net_version")
		return v, nil
	}
	fields, ok := p.(provider.StaticFieldsProvider)
	if !ok {
		return nil, nil
	}
	for _, name := range provider.StaticChainIDFields {
		if v, ok := fields.StaticField(name); ok && provider.HasValue(v) {
			return v, nil
		}
	}
	return nil, nil
}

func chainIDValue(raw any) (any, bool) {
	v := provider.Unwrap(raw)
	return v, provider.HasValue(v)
}

func accountValue(raw any) (any, bool) {
	return provider.FirstAccount(provider.Unwrap(raw))
}

var (
	activateTiers = []fallbackTier{
		{name: "eth_requestAccounts", query: send("eth_requestAccounts"), onError: rejectOrSwallow},
		{name: "enable", query: enable, onError: propagate},
	}

	chainIDTiers = []fallbackTier{
		{name: "eth_chainId", query: send("eth_chainId"), onError: swallow},
		{name: "net_version", query: send("net_version"), onError: swallow},
		{name: "net_version_legacy", query: sendLegacy("net_version"), onError: swallow},
		{name: TIER_STATIC, query: staticChainID, onError: swallow},
	}

	accountTiers = []fallbackTier{
		{name: "eth_accounts", query: send("eth_accounts"), onError: swallow},
		{name: "enable", query: enable, onError: swallow},
		{name: "eth_accounts_legacy", query: sendLegacy("eth_accounts"), onError: propagate},
	}
)

// runTiers tries each tier in order until one yields a value. It returns
// (nil, nil) when every tier came up empty.
func (c *WalletConnector) runTiers(ctx context.Context, query string, p provider.Provider, tiers []fallbackTier, value func(any) (any, bool)) (any, error) {
	for _, tier := range tiers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := tier.query(ctx, p)
		if err != nil {
			if failErr := tier.onError(tier.name, err); failErr != nil {
				return nil, failErr
			}
			c.logger.Debug("%s: %s failed, trying next: %v", query, tier.name, err)
			metrics.FallbackTotal.WithLabelValues(query, tier.name).Inc()
			continue
		}

		if v, ok := value(raw); ok {
			return v, nil
		}
		metrics.FallbackTotal.WithLabelValues(query, tier.name).Inc()
	}
	return nil, nil
}
