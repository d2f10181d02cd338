package collector

import (
	"context"

	"StockAnalyzerView/internal/model"
)

// Fetcher retrieves one historical series from a data source. Implementations
// report every failure as a *model.FetchError and never retry.
type Fetcher interface {
	Fetch(ctx context.Context, dataType model.DataType, result model.ResultType, symbol string) ([]model.RawRecord, error)
	Name() string
}

// networkError is the message shown for any failed DataSource response.
const networkError = "Network response was not ok"

func fetchError(dt model.DataType, rt model.ResultType, symbol string, status int, msg string, err error) *model.FetchError {
	return &model.FetchError{
		DataType:   dt,
		ResultType: rt,
		Symbol:     symbol,
		Status:     status,
		Message:    msg,
		Err:        err,
	}
}
