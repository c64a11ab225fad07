package ledger

import (
	"fmt"
	"time"
)

// SQLite stores CURRENT_TIMESTAMP as text; drivers differ on whether they
// convert it, so every representation is accepted.
var timestampLayouts = []string{ //nolint:gochecknoglobals // fixed layout table
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
}

type timestamp struct {
	time.Time
}

func (ts *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		ts.Time = time.Time{}
	case time.Time:
		ts.Time = v
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported applied_at value %T", src)
	}

	return nil
}

func (ts *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			ts.Time = t

			return nil
		}
	}

	return fmt.Errorf("unrecognized applied_at value %q", s)
}
