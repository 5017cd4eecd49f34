package apitest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// TGUser is the user payload embedded in Telegram init data.
type TGUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
}

// SignInitData builds a valid init-data query string for tests. The
// signature is HMAC-SHA256 over the sorted key=value check string,
// keyed with SHA256(botToken), which is what Telegram produces and the
// backend verifies.
func SignInitData(botToken string, user TGUser, startParam string) string {
	userJSON, _ := json.Marshal(user)

	values := url.Values{}
	values.Set("user", string(userJSON))
	values.Set("auth_date", strconv.FormatInt(time.Now().Unix(), 10))
	if startParam != "" {
		values.Set("start_param", startParam)
	}
	values.Set("hash", computeHash(botToken, values))
	return values.Encode()
}

// ValidateInitData checks the signature and extracts the embedded user.
func ValidateInitData(botToken, initData string) (TGUser, url.Values, error) {
	if initData == "" {
		return TGUser{}, nil, errors.New("missing init data")
	}
	values, err := url.ParseQuery(initData)
	if err != nil {
		return TGUser{}, nil, errors.New("invalid init data")
	}
	received := values.Get("hash")
	if received == "" {
		return TGUser{}, nil, errors.New("invalid init data")
	}
	computed := computeHash(botToken, values)
	if !hmac.Equal([]byte(computed), []byte(received)) {
		return TGUser{}, nil, errors.New("invalid init data")
	}
	userRaw := values.Get("user")
	if userRaw == "" {
		return TGUser{}, nil, errors.New("invalid init data")
	}
	var user TGUser
	if err := json.Unmarshal([]byte(userRaw), &user); err != nil {
		return TGUser{}, nil, errors.New("invalid init data")
	}
	return user, values, nil
}

func computeHash(botToken string, values url.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	checkString := strings.Join(pairs, "\n")

	secret := sha256.Sum256([]byte(botToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write([]byte(checkString))
	return hex.EncodeToString(mac.Sum(nil))
}
