package dto

// MarketRow is one instrument line of the price widget. The numbers
// are simulated for display; nothing downstream may rely on them.
type MarketRow struct {
	Name       string  `json:"name"`
	Bid        float64 `json:"bid"`
	Ask        float64 `json:"ask"`
	Change     float64 `json:"change"`
	ChangeType string  `json:"changeType"`
	Spread     float64 `json:"spread"`
}
