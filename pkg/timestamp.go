package pkg

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Timestamp is a device-supplied sample time. Devices send either epoch
// milliseconds as a JSON number or an RFC 3339 string.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON accepts 1736500000000 as well as "2025-01-10T09:06:40Z".
func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			return nil
		}
		parsed, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("timestamp %q: %w", s, err)
		}
		t.Time = parsed
		return nil
	}
	var ms json.Number
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	f, err := ms.Float64()
	if err != nil {
		return fmt.Errorf("timestamp %s: %w", ms, err)
	}
	t.Time = time.UnixMilli(int64(f)).UTC()
	return nil
}

// MarshalJSON writes the RFC 3339 form.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}
