package payment

// Provider identifies a payment provider known to the registry. Custom
// providers registered at runtime live outside this enumeration.
type Provider string

const (
	ProviderStripe Provider = "stripe"
	ProviderRedsys Provider = "redsys"
	ProviderPayPal Provider = "paypal"
	ProviderCash   Provider = "cash"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderStripe, ProviderRedsys, ProviderPayPal, ProviderCash:
		return true
	}
	return false
}

func (p Provider) Label() string {
	switch p {
	case ProviderStripe:
		return "Stripe"
	case ProviderRedsys:
		return "Redsys"
	case ProviderPayPal:
		return "PayPal"
	case ProviderCash:
		return "Cash"
	}
	return string(p)
}

// Method is an optional hint the caller may attach to a request.
type Method string

const (
	MethodCard  Method = "card"
	MethodBizum Method = "bizum"
	MethodCash  Method = "cash"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCard, MethodBizum, MethodCash:
		return true
	}
	return false
}

// RedsysCode maps the method onto the DS_MERCHANT_PAYMETHODS code the bank
// terminal understands. Card excludes iupay; cash falls back to all methods.
func (m Method) RedsysCode() string {
	switch m {
	case MethodCard:
		return "T"
	case MethodBizum:
		return "z"
	default:
		return "C"
	}
}

// ResponseType selects how the payer completes authorization.
type ResponseType string

const (
	TypeAPI         ResponseType = "api"
	TypeRedirect    ResponseType = "redirect"
	TypeAlternative ResponseType = "alternative"
)
