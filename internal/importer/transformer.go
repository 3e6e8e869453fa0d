package importer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tradingJournal/internal/domain"
	"tradingJournal/internal/risk"
)

var (
	// ErrMalformedRecord marks a transaction whose fields could not be parsed.
	ErrMalformedRecord = errors.New("malformed import record")
	// ErrUnrecognizedAction marks a transaction that is not a trade (dividend,
	// expiration, journal entry, ...). Such records are skipped, not failed.
	ErrUnrecognizedAction = errors.New("unrecognized transaction action")
	// ErrEmptyBatch is returned when a dump holds no transactions at all.
	ErrEmptyBatch = errors.New("no transactions found in import batch")
	// ErrInvalidPayload is returned when the dump itself cannot be decoded.
	ErrInvalidPayload = errors.New("invalid import payload")
)

const (
	brokerDateLayout = "01/02/2006"
	asOfSeparator    = " as of "
)

var nonNumeric = regexp.MustCompile(`[^0-9.-]+`)

// actionDirections maps the accepted brokerage actions onto trade sides.
var actionDirections = map[string]domain.Direction{
	"Buy":           domain.Buy,
	"Buy to Open":   domain.Buy,
	"Sell":          domain.Short,
	"Sell to Close": domain.Short,
}

// Export is a brokerage transaction history dump.
type Export struct {
	FromDate     string        `json:"FromDate"`
	ToDate       string        `json:"ToDate"`
	Transactions []Transaction `json:"BrokerageTransactions"`
}

// Transaction is one row of a brokerage dump. Quantity and Price are
// currency-formatted strings such as "$1,234.50".
type Transaction struct {
	Date        string `json:"Date"`
	Action      string `json:"Action"`
	Symbol      string `json:"Symbol"`
	Description string `json:"Description,omitempty"`
	Quantity    string `json:"Quantity"`
	Price       string `json:"Price"`
	FeesAndComm string `json:"Fees & Comm,omitempty"`
	Amount      string `json:"Amount,omitempty"`
}

// ParseExport decodes a brokerage dump.
func ParseExport(r io.Reader) (*Export, error) {
	var exp Export
	if err := json.NewDecoder(r).Decode(&exp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &exp, nil
}

// Transformer maps brokerage transactions onto trade-creation payloads.
type Transformer struct {
	Defaults risk.Defaults  // Stop and target applied to every imported trade
	Location *time.Location // Zone of the broker's calendar dates; nil means time.Local
}

// NewTransformer creates a transformer with the standard 5%/10% defaults.
func NewTransformer() *Transformer {
	return &Transformer{Defaults: risk.NewDefaults(), Location: time.Local}
}

// Transform converts one transaction into an open trade ready to be created.
// Actions outside the accepted set return ErrUnrecognizedAction; unparseable
// fields return an error wrapping ErrMalformedRecord.
func (tr *Transformer) Transform(tx Transaction) (*domain.Trade, error) {
	dir, ok := actionDirections[strings.TrimSpace(tx.Action)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedAction, tx.Action)
	}

	symbol := strings.ToUpper(strings.TrimSpace(tx.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is empty", ErrMalformedRecord)
	}

	entryDate, err := tr.parseDate(tx.Date)
	if err != nil {
		return nil, err
	}

	qty, err := parseAmount("quantity", tx.Quantity)
	if err != nil {
		return nil, err
	}
	volume := qty.IntPart()
	if volume <= 0 {
		return nil, fmt.Errorf("%w: quantity %q must be at least one share", ErrMalformedRecord, tx.Quantity)
	}

	price, err := parseAmount("price", tx.Price)
	if err != nil {
		return nil, err
	}
	if !price.IsPositive() {
		return nil, fmt.Errorf("%w: price %q must be positive", ErrMalformedRecord, tx.Price)
	}

	return &domain.Trade{
		Ticker:      symbol,
		Direction:   dir,
		Volume:      int(volume),
		EntryPrice:  price.InexactFloat64(),
		EntryDate:   entryDate,
		StopLoss:    domain.Float(tr.Defaults.StopLoss(price, dir).InexactFloat64()),
		TargetPrice: domain.Float(tr.Defaults.TakeProfit(price, dir).InexactFloat64()),
	}, nil
}

// ItemFailure describes one transaction that could not be transformed.
type ItemFailure struct {
	Index  int    // Position in the source batch
	Symbol string // Symbol as found in the source record
	Err    error
}

// Batch is the outcome of transforming a whole dump.
type Batch struct {
	Trades   []*domain.Trade
	Indexes  []int // Source position of each entry in Trades
	Failures []ItemFailure
	Skipped  int
	Total    int   // Number of transactions in the dump
	Err      error // ErrEmptyBatch when the dump held nothing
}

// TransformBatch transforms every transaction independently. A bad record
// never stops the rest of the batch.
func (tr *Transformer) TransformBatch(txs []Transaction) *Batch {
	b := &Batch{Total: len(txs)}
	if len(txs) == 0 {
		b.Err = ErrEmptyBatch
		return b
	}

	for i, tx := range txs {
		trade, err := tr.Transform(tx)
		switch {
		case err == nil:
			b.Trades = append(b.Trades, trade)
			b.Indexes = append(b.Indexes, i)
		case errors.Is(err, ErrUnrecognizedAction):
			b.Skipped++
		default:
			b.Failures = append(b.Failures, ItemFailure{Index: i, Symbol: tx.Symbol, Err: err})
		}
	}
	return b
}

func (tr *Transformer) parseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, asOfSeparator); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	loc := tr.Location
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(brokerDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q (use MM/DD/YYYY): %v", ErrMalformedRecord, raw, err)
	}
	return t, nil
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s %q: %v", ErrMalformedRecord, field, raw, err)
	}
	return d, nil
}
