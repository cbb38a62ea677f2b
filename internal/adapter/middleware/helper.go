package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// rejection mirrors the API's error body so clients parse one shape.
type rejection struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func deny(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, rejection{Error: msg, Code: code})
}

func bodyDigest(b []byte) string { s := sha256.Sum256(b); return hex.EncodeToString(s[:]) }

func nowUTC() time.Time { return time.Now().UTC() }

// replayKey scopes a request id to the caller and the concrete path, so the
// borrower named in the URL is part of the key.
func replayKey(method, path, caller, requestID string) string {
	return "idemp:loan:" + strings.ToLower(method) + ":" + path + ":" + caller + ":" + requestID
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

func validReqID(id string) bool {
	id = strings.TrimSpace(id)
	return reUUID.MatchString(id) || reHex32.MatchString(id)
}

func parseAxRequestAt(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	t, err := ParseInstant(raw)
	if err != nil {
		return time.Time{}, errors.New(HeaderRequestAt + " " + errInstant.Error())
	}
	return t, nil
}

var errInstant = errors.New("must be epoch (s/ms) or RFC3339 with timezone")

// ParseInstant accepts epoch seconds, epoch milliseconds, or RFC3339(Nano)
// carrying a zone ("Z" or ±HH:MM). Naive local timestamps are rejected.
// Loan deadlines and the request timestamp header share this parser.
func ParseInstant(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errInstant
}

func isServerError(status int) bool { return status >= http.StatusInternalServerError }
