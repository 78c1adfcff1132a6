package services

import (
	"encoding/json"
	"fmt"
	"time"
	_ "time/tzdata"

	"github.com/araddon/dateparse"
	"github.com/shopspring/decimal"

	"github.com/josejalvarezm/payments-webhook-connector/internal/domain"
)

// DefaultEventTimezone is the zone event timestamps are converted to
const DefaultEventTimezone = "Australia/Sydney"

var minorUnits = decimal.NewFromInt(100)

// Normalizer turns extracted notification fields into a NotificationRecord
type Normalizer struct {
	location *time.Location
}

// NewNormalizer creates a normalizer converting timestamps to the named zone
func NewNormalizer(timezone string) (*Normalizer, error) {
	if timezone == "" {
		timezone = DefaultEventTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &Normalizer{location: loc}, nil
}

// Normalize fills absent required fields with nil, converts the amount from
// minor to major units and moves eventDate into the configured zone.
func (n *Normalizer) Normalize(fields map[string]any, required []string) (domain.NotificationRecord, error) {
	record := make(domain.NotificationRecord, len(required))
	for k, v := range fields {
		record[k] = v
	}
	for _, key := range required {
		if _, ok := record[key]; !ok {
			record[key] = nil
		}
	}

	if raw := record[domain.FieldValue]; raw != nil {
		amount, err := parseAmount(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
		}
		record[domain.FieldValue] = amount.Div(minorUnits)
	}

	if raw := record[domain.FieldEventDate]; raw != nil {
		text, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: %v is not a string", domain.ErrInvalidTimestamp, raw)
		}
		ts, err := dateparse.ParseIn(text, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrInvalidTimestamp, err)
		}
		record[domain.FieldEventDate] = ts.In(n.location).Format(time.RFC3339Nano)
	}

	return record, nil
}

func parseAmount(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		return decimal.NewFromString(v)
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported amount type %T", raw)
	}
}
