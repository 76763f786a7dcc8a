package swapnet

import "time"

// SwapType selects which side of the quote the amount fixes
type SwapType string

const (
	SwapTypeExactInput  SwapType = "EXACT_INPUT"
	SwapTypeExactOutput SwapType = "EXACT_OUTPUT"
)

// Address-type enumerations the network requires on every quote
const (
	DepositTypeOriginChain   = "ORIGIN_CHAIN"
	RefundTypeOriginChain    = "ORIGIN_CHAIN"
	RecipientTypeDestination = "DESTINATION_CHAIN"
	RecipientTypeIntents     = "INTENTS"
)

// QuoteRequest is the quote request wire format
type QuoteRequest struct {
	Dry              bool     `json:"dry"`
	SwapType         SwapType `json:"swapType"`
	OriginAsset      string   `json:"originAsset"`
	DestinationAsset string   `json:"destinationAsset"`
	Amount           string   `json:"amount"` // Atomic units
	DepositType      string   `json:"depositType"`
	RefundType       string   `json:"refundType"`
	RecipientType    string   `json:"recipientType"`
	RefundTo         string   `json:"refundTo,omitempty"`
	Recipient        string   `json:"recipient,omitempty"`
	SlippageBps      int      `json:"slippageTolerance,omitempty"`
	Deadline         string   `json:"deadline,omitempty"` // ISO-8601
}

// quoteResponse mirrors the network's response. The network has emitted both
// the minAmountIn/quoteId and amountIn/id spellings over time; both are kept
// and collapsed in toQuote.
type quoteResponse struct {
	Quote struct {
		DepositAddress       string `json:"depositAddress"`
		DepositMemo          string `json:"depositMemo"`
		QuoteID              string `json:"quoteId"`
		ID                   string `json:"id"`
		Deadline             string `json:"deadline"`
		TimeEstimate         int    `json:"timeEstimate"`
		MinAmountIn          string `json:"minAmountIn"`
		AmountIn             string `json:"amountIn"`
		MinAmountInFormatted string `json:"minAmountInFormatted"`
		AmountInFormatted    string `json:"amountInFormatted"`
	} `json:"quote"`
}

// Quote is the normalized quote this service consumes
type Quote struct {
	DepositAddress       string
	Memo                 string
	QuoteID              string
	Deadline             time.Time
	TimeEstimate         int // Seconds
	MinAmountIn          string
	MinAmountInFormatted string
}

func (r *quoteResponse) toQuote() (*Quote, error) {
	q := &Quote{
		DepositAddress:       r.Quote.DepositAddress,
		Memo:                 r.Quote.DepositMemo,
		QuoteID:              firstNonEmpty(r.Quote.QuoteID, r.Quote.ID),
		TimeEstimate:         r.Quote.TimeEstimate,
		MinAmountIn:          firstNonEmpty(r.Quote.MinAmountIn, r.Quote.AmountIn),
		MinAmountInFormatted: firstNonEmpty(r.Quote.MinAmountInFormatted, r.Quote.AmountInFormatted),
	}
	if r.Quote.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, r.Quote.Deadline)
		if err != nil {
			return nil, err
		}
		q.Deadline = deadline
	}
	return q, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// statusResponse is the status endpoint wire format
type statusResponse struct {
	Status string `json:"status"`
}

// StatusResult carries the raw provider status plus its normalization
type StatusResult struct {
	Raw      string
	Status   NormalizedStatus
	Refunded bool
}
