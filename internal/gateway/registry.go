package gateway

import (
	"log/slog"
	"sync"

	"github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/datamodel/payment"
	"github.com/frahmantamala/payment-gateway/internal/gateway/paypal"
	"github.com/frahmantamala/payment-gateway/internal/gateway/redsys"
	"github.com/frahmantamala/payment-gateway/internal/gateway/stripe"
)

// Constructor builds a custom gateway. It runs at first resolution, not at
// registration, so registration may happen before configuration exists.
type Constructor func() (PaymentGateway, error)

// Registry resolves a provider identifier to a cached adapter instance.
// Adapters are constructed lazily on first request and cached for the life of
// the registry; a misconfigured adapter is never cached.
type Registry struct {
	cfg    internal.PaymentsConfig
	logger *slog.Logger

	mu       sync.Mutex
	gateways map[string]PaymentGateway
	custom   map[string]Constructor
}

func NewRegistry(cfg internal.PaymentsConfig, logger *slog.Logger) *Registry {
	return &Registry{
		cfg:      cfg,
		logger:   logger,
		gateways: make(map[string]PaymentGateway),
		custom:   make(map[string]Constructor),
	}
}

// Register stores a constructor for a custom provider identifier. The
// constructor result is validated when the provider is first resolved.
func (r *Registry) Register(name string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.custom[name] = ctor
	r.logger.Info("custom payment provider registered", "provider", name)
}

// Driver resolves a provider to its gateway. Resolution is safe for
// concurrent use; each adapter is constructed at most once.
func (r *Registry) Driver(provider payment.Provider) (PaymentGateway, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if gw, ok := r.gateways[string(provider)]; ok {
		return gw, nil
	}

	gw, err := r.construct(provider)
	if err != nil {
		return nil, err
	}

	r.gateways[string(provider)] = gw
	r.logger.Info("payment gateway constructed", "provider", string(provider))
	return gw, nil
}

func (r *Registry) construct(provider payment.Provider) (PaymentGateway, error) {
	switch provider {
	case payment.ProviderStripe:
		gw, err := stripe.New(r.cfg.Stripe, r.logger)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case payment.ProviderRedsys:
		gw, err := redsys.New(r.cfg.Redsys, r.logger)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case payment.ProviderPayPal:
		gw, err := paypal.New(r.cfg.PayPal, r.logger)
		if err != nil {
			return nil, err
		}
		return gw, nil
	case payment.ProviderCash:
		return nil, internal.NewInvalidConfigurationError(string(payment.ProviderCash),
			"cash payment does not require online processing")
	}

	if ctor, ok := r.custom[string(provider)]; ok {
		gw, err := ctor()
		if err != nil {
			return nil, err
		}
		if gw == nil {
			return nil, internal.NewInvalidConfigurationError(string(provider),
				"custom constructor returned no gateway")
		}
		return gw, nil
	}

	return nil, internal.NewUnsupportedProviderError(string(provider))
}
