package models

// Requests for reaction HTTP endpoints. Defined in domain for reuse by the Kafka request handler.

type AnalyzeRequest struct {
	Ticker   string `query:"ticker" json:"ticker" validate:"required,max=10"`
	Start    string `query:"start" json:"start" validate:"omitempty,datetime=2006-01-02"`
	End      string `query:"end" json:"end" validate:"omitempty,datetime=2006-01-02"`
	Duration int    `query:"duration" json:"duration" default:"30" validate:"gte=1,lte=365"`
	Horizons string `query:"horizons" json:"horizons" validate:"omitempty,max=64"`
}

type HistoryRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=10"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=10000"`
}

type PricesRequest struct {
	Ticker string `query:"ticker" json:"ticker" validate:"required,max=10"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=50000"`
}
