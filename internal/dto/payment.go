package dto

// CheckoutResponse points the storefront at the hosted checkout page.
// Demo is true when no payment provider is configured and the URL is
// a local stand-in.
type CheckoutResponse struct {
	URL         string `json:"url"`
	SessionID   string `json:"sessionId,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Demo        bool   `json:"demo"`
}
