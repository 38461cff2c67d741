package cdm

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireTime parses the ISO-8601 instants spec.md §6 specifies: with or
// without a timezone offset. A naive (zone-less) instant is interpreted in
// UTC — the horizon's frame is just whichever zone every other naive
// instant in the same request uses, and UTC keeps that interpretation
// consistent without guessing a local zone.
type wireTime time.Time

var wireTimeLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

func (t *wireTime) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("cdm: instant: %w", err)
	}

	var lastErr error
	for _, layout := range wireTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			*t = wireTime(parsed.UTC())
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("cdm: instant %q does not match any supported ISO-8601 layout: %w", s, lastErr)
}

func (t wireTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339))
}

func (t wireTime) Time() time.Time {
	return time.Time(t)
}
