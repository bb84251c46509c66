package repository

import (
	"github.com/goccy/go-json"

	"github.com/iliyamo/airplane-seat-reservation/internal/model"
)

// encodeSeats renders seats as a JSON array in row-major order.  The
// output is canonical: equal sets always encode to identical text, which
// lets a compare-and-swap compare the stored column byte for byte.
func encodeSeats(seats model.SeatSet) (string, error) {
	b, err := json.Marshal(seats.Sorted())
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// encodeSeatList keeps the caller's order; used for user reservations
// where the sequence is part of the record.
func encodeSeatList(seats []string) (string, error) {
	if seats == nil {
		seats = []string{}
	}
	b, err := json.Marshal(seats)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeSeatList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}
