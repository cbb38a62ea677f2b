package http

import (
	"bytes"
	"encoding/json"
	"time"

	"p2p-lending-backend/internal/adapter/middleware"
)

// Instant decodes a JSON number (epoch s/ms) or an RFC3339 string with zone.
type Instant struct{ time.Time }

func (i *Instant) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	}
	t, err := middleware.ParseInstant(raw)
	if err != nil {
		return err
	}
	i.Time = t
	return nil
}
