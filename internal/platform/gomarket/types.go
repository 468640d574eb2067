package gomarket

// symbolInfo is one entry of the symbols listing. Some deployments return
// a name, others only the base/quote pair.
type symbolInfo struct {
	Name  string `json:"name"`
	Base  string `json:"base"`
	Quote string `json:"quote"`
}

// symbolsResponse is the object form of GET /symbols/{exchange}/{market_type}.
// Older deployments return a bare JSON array of strings instead; the client
// handles both.
type symbolsResponse struct {
	Symbols []symbolInfo `json:"symbols"`
}

// tickerResponse is the payload of GET /ticker/{exchange}/{market_type}/{symbol}.
// Sizes are optional; the upstream omits them for most venues.
type tickerResponse struct {
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
	Last      float64 `json:"last"`
	BidSize   float64 `json:"bid_size"`
	AskSize   float64 `json:"ask_size"`
	Timestamp int64   `json:"timestamp"` // unix milliseconds
}

// errorResponse is the error body the API returns on non-2xx statuses.
type errorResponse struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

func (e errorResponse) text() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Message
}
