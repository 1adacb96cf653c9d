package input

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

// MaxBatchSize bounds how many event ids one request may fan out to.
const MaxBatchSize = 50

const (
	FieldEventIDs    = "eventIds"
	FieldEventID     = "eventId"
	FieldFollowerKey = "address"
)

var (
	ErrInvalidEventIDs  = errors.New("eventIds must be a positive-integer array.")
	ErrInvalidEventID   = errors.New("eventId must be a positive integer")
	ErrMissingFollowKey = errors.New("missing follower address")
)

// EventIDs extracts the event id set from body: candidates are coerced to
// numbers, anything that is not a positive integer is dropped, duplicates are
// removed keeping first-seen order and the result is capped at MaxBatchSize.
// Anything but a list is invalid.
func EventIDs(body map[string]any) ([]int64, error) {
	candidates, _ := body[FieldEventIDs].([]any)

	seen := make(map[int64]struct{}, len(candidates))
	ids := make([]int64, 0, min(len(candidates), MaxBatchSize))
	for _, c := range candidates {
		id, ok := PositiveInt(c)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == MaxBatchSize {
			break
		}
	}

	if len(ids) == 0 {
		return nil, ErrInvalidEventIDs
	}
	return ids, nil
}

// EventID extracts a single positive event id from body.
func EventID(body map[string]any) (int64, error) {
	id, ok := PositiveInt(body[FieldEventID])
	if !ok {
		return 0, ErrInvalidEventID
	}
	return id, nil
}

// FollowerKey extracts the trimmed follower address from body.
func FollowerKey(body map[string]any) (string, error) {
	s, _ := body[FieldFollowerKey].(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingFollowKey
	}
	return s, nil
}

// PositiveInt coerces v to a strictly positive integer. JSON numbers and
// numeric strings are accepted; fractions, NaN and infinities are not.
func PositiveInt(v any) (int64, bool) {
	switch n := v.(type) {
	case json.Number:
		return parsePositive(n.String())
	case string:
		return parsePositive(strings.TrimSpace(n))
	case float64:
		return fromFloat(n)
	case int:
		return int64(n), n > 0
	case int64:
		return n, n > 0
	default:
		return 0, false
	}
}

func parsePositive(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, i > 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return fromFloat(f)
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f != math.Trunc(f) || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}
