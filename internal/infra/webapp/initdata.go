// Package webapp validates Telegram mini-app launch data and builds links to the mini-app.
package webapp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoHash    = errors.New("webapp: init data has no hash")
	ErrSignature = errors.New("webapp: init data signature mismatch")
	ErrExpired   = errors.New("webapp: init data expired")
	ErrNoUser    = errors.New("webapp: init data has no user")
)

type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Language  string `json:"language_code,omitempty"`
}

type InitData struct {
	User     User
	AuthDate time.Time
	QueryID  string
}

// Validator checks the initData string the mini-app sends with every request.
type Validator struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// NewValidator derives the signing key from the bot token.
// maxAge <= 0 disables the freshness check.
func NewValidator(botToken string, maxAge time.Duration) *Validator {
	return &Validator{secret: sign([]byte("WebAppData"), botToken), maxAge: maxAge, now: time.Now}
}

func sign(key []byte, msg string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(msg))
	return h.Sum(nil)
}

// checkString is the "key=value" lines without hash, sorted by key.
func checkString(v url.Values) string {
	keys := make([]string, 0, len(v))
	for k := range v {
		if k != "hash" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, k+"="+v.Get(k))
	}
	return strings.Join(lines, "\n")
}

// Sign computes the hash for values; tests use it to build valid init data.
func (v *Validator) Sign(values url.Values) string {
	return hex.EncodeToString(sign(v.secret, checkString(values)))
}

func (v *Validator) Validate(raw string) (InitData, error) {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return InitData{}, fmt.Errorf("webapp: parse init data: %w", err)
	}
	got := values.Get("hash")
	if got == "" {
		return InitData{}, ErrNoHash
	}
	want := v.Sign(values)
	if !hmac.Equal([]byte(got), []byte(want)) {
		return InitData{}, ErrSignature
	}

	var out InitData
	if ts, err := strconv.ParseInt(values.Get("auth_date"), 10, 64); err == nil {
		out.AuthDate = time.Unix(ts, 0)
	}
	if v.maxAge > 0 && (out.AuthDate.IsZero() || v.now().Sub(out.AuthDate) > v.maxAge) {
		return InitData{}, ErrExpired
	}
	if err := json.Unmarshal([]byte(values.Get("user")), &out.User); err != nil || out.User.ID == 0 {
		return InitData{}, ErrNoUser
	}
	out.QueryID = values.Get("query_id")
	return out, nil
}
