package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// NumberKind tells which lineage a photocard number belongs to.
type NumberKind uint8

const (
	// NumberNone is an unassigned number (provisional records).
	NumberNone NumberKind = iota
	// NumberSequential is a plain counter value, e.g. 17.
	NumberSequential
	// NumberIdentified is a retired original replaced by an identification, e.g. "017ID".
	NumberIdentified
	// NumberTombstoned is only held while a number is being moved between records.
	NumberTombstoned
)

const (
	identifiedSuffix = "ID"
	tombstonePrefix  = "DELETED_"
)

// PhotocardNumber is the human-facing catalogue number of a photocard.
// It is stored as a string column so all kinds share one unique index.
type PhotocardNumber struct {
	Kind  NumberKind
	Seq   uint32
	Stamp int64 // unix millis, tombstones only
}

func Sequential(n uint32) PhotocardNumber {
	return PhotocardNumber{Kind: NumberSequential, Seq: n}
}

func (n PhotocardNumber) IsZero() bool {
	return n.Kind == NumberNone
}

// Identified returns the "NNNID" number the original record keeps after
// its identity has been confirmed by a replacement.
func (n PhotocardNumber) Identified() (PhotocardNumber, error) {
	switch n.Kind {
	case NumberSequential, NumberIdentified:
		return PhotocardNumber{Kind: NumberIdentified, Seq: n.Seq}, nil
	default:
		return PhotocardNumber{}, fmt.Errorf("photocard number %q has no sequence to identify", n.String())
	}
}

// Tombstone returns a temporary number that vacates n's unique slot.
func (n PhotocardNumber) Tombstone(at time.Time) PhotocardNumber {
	return PhotocardNumber{Kind: NumberTombstoned, Seq: n.Seq, Stamp: at.UnixMilli()}
}

// String is the stored representation.
func (n PhotocardNumber) String() string {
	switch n.Kind {
	case NumberSequential:
		return strconv.FormatUint(uint64(n.Seq), 10)
	case NumberIdentified:
		return fmt.Sprintf("%03d%s", n.Seq, identifiedSuffix)
	case NumberTombstoned:
		return fmt.Sprintf("%s%d_%d", tombstonePrefix, n.Seq, n.Stamp)
	default:
		return ""
	}
}

// Display renders the number the way the catalogue shows it: "#017", "#017ID".
func (n PhotocardNumber) Display() string {
	switch n.Kind {
	case NumberSequential:
		return fmt.Sprintf("#%03d", n.Seq)
	case NumberIdentified:
		return "#" + n.String()
	case NumberTombstoned:
		return "#" + n.String()
	default:
		return "N/A"
	}
}

// ParsePhotocardNumber parses the stored representation.
func ParsePhotocardNumber(s string) (PhotocardNumber, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return PhotocardNumber{}, nil
	case strings.HasPrefix(s, tombstonePrefix):
		parts := strings.Split(strings.TrimPrefix(s, tombstonePrefix), "_")
		if len(parts) != 2 {
			return PhotocardNumber{}, fmt.Errorf("invalid tombstone number %q", s)
		}
		seq, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			return PhotocardNumber{}, fmt.Errorf("invalid tombstone number %q: %w", s, err)
		}
		stamp, err := strconv.ParseInt(parts[1], 10, 64)
		if err != nil {
			return PhotocardNumber{}, fmt.Errorf("invalid tombstone number %q: %w", s, err)
		}
		return PhotocardNumber{Kind: NumberTombstoned, Seq: uint32(seq), Stamp: stamp}, nil
	case strings.HasSuffix(s, identifiedSuffix):
		seq, err := strconv.ParseUint(strings.TrimSuffix(s, identifiedSuffix), 10, 32)
		if err != nil {
			return PhotocardNumber{}, fmt.Errorf("invalid identified number %q: %w", s, err)
		}
		return PhotocardNumber{Kind: NumberIdentified, Seq: uint32(seq)}, nil
	default:
		seq, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return PhotocardNumber{}, fmt.Errorf("invalid photocard number %q: %w", s, err)
		}
		return Sequential(uint32(seq)), nil
	}
}

// Value implements driver.Valuer. Unassigned numbers are stored as NULL.
func (n PhotocardNumber) Value() (driver.Value, error) {
	if n.Kind == NumberNone {
		return nil, nil
	}
	return n.String(), nil
}

// Scan implements sql.Scanner.
func (n *PhotocardNumber) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*n = PhotocardNumber{}
		return nil
	case string:
		parsed, err := ParsePhotocardNumber(v)
		if err != nil {
			return err
		}
		*n = parsed
		return nil
	case []byte:
		return n.Scan(string(v))
	case int64:
		*n = Sequential(uint32(v))
		return nil
	default:
		return fmt.Errorf("cannot scan %T into PhotocardNumber", src)
	}
}

// MarshalJSON keeps sequential numbers numeric and everything else a string.
func (n PhotocardNumber) MarshalJSON() ([]byte, error) {
	switch n.Kind {
	case NumberNone:
		return []byte("null"), nil
	case NumberSequential:
		return []byte(strconv.FormatUint(uint64(n.Seq), 10)), nil
	default:
		return json.Marshal(n.String())
	}
}

func (n *PhotocardNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = PhotocardNumber{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var num uint32
		if err := json.Unmarshal(data, &num); err != nil {
			return fmt.Errorf("invalid photocard number %s", data)
		}
		*n = Sequential(num)
		return nil
	}
	parsed, err := ParsePhotocardNumber(s)
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
