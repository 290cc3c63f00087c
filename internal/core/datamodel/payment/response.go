package payment

import (
	errors "github.com/frahmantamala/payment-gateway/internal"
	"github.com/frahmantamala/payment-gateway/internal/core/common/validation"
)

// Response describes how the payer must complete authorization after a
// successful initiate call. The type tag selects the variant; Data is always
// the audit record of what was exchanged with the provider.
type Response struct {
	Type         ResponseType
	Data         map[string]any
	RedirectURL  string
	ClientSecret string
	FormHTML     string
}

// NewResponse validates the variant invariants and returns an owned copy.
func NewResponse(resp Response) (*Response, error) {
	if len(resp.Data) == 0 {
		return nil, errors.NewMissingFieldError("data")
	}

	switch resp.Type {
	case TypeAPI:
		if resp.ClientSecret == "" {
			return nil, errors.NewMissingFieldError("client_secret")
		}
	case TypeRedirect:
		if resp.RedirectURL == "" && resp.FormHTML == "" {
			return nil, errors.NewMissingFieldError("redirect_url")
		}
		if resp.RedirectURL != "" {
			if err := validation.URL("redirect_url", resp.RedirectURL); err != nil {
				return nil, err
			}
		}
	case TypeAlternative:
		// data payload already required above; structure unconstrained
	default:
		return nil, errors.NewValidationError("type", "unknown response type")
	}

	data := make(map[string]any, len(resp.Data))
	for k, v := range resp.Data {
		data[k] = v
	}
	resp.Data = data

	return &resp, nil
}

func (r *Response) IsAPI() bool {
	return r.Type == TypeAPI
}

func (r *Response) IsRedirect() bool {
	return r.Type == TypeRedirect
}

func (r *Response) IsAlternative() bool {
	return r.Type == TypeAlternative
}
