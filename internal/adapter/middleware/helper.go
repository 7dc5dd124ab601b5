package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// replayEntry is what the store keeps under one idempotency key. While
// InProgress is set the submission is still running.
type replayEntry struct {
	InProgress bool      `json:"in_progress"`
	Status     int       `json:"status"`
	Body       []byte    `json:"body"`
	Digest     string    `json:"digest"`
	RequestAt  time.Time `json:"request_at"`
	StoredAt   time.Time `json:"stored_at"`
}

func nowUTC() time.Time { return time.Now().UTC() }

// storeKey scopes a client key to the route and the caller, so two citizens
// reusing the same key never see each other's answers.
func storeKey(method, route, rut, key string) string {
	return "idemp:portal:" + strings.ToLower(method) + ":" + route + ":" + rut + ":" + key
}

var (
	reUUID  = regexp.MustCompile(`^[a-f0-9]{8}-[a-f0-9]{4}-[1-5][a-f0-9]{3}-[89ab][a-f0-9]{3}-[a-f0-9]{12}$`)
	reHex32 = regexp.MustCompile(`^[a-f0-9]{32}$`)
)

// normalizeKey lowercases a UUID or 32-hex key. Keys are case-insensitive.
func normalizeKey(raw string) (string, bool) {
	k := strings.ToLower(strings.TrimSpace(raw))
	if reUUID.MatchString(k) || reHex32.MatchString(k) {
		return k, true
	}
	return "", false
}

// parseRequestAt reads X-Request-At as epoch seconds, epoch milliseconds or
// RFC 3339 with an explicit offset.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with offset")
}

// requestDigest fingerprints a submission. Multipart forms are hashed part by
// part (field name, file name, content hash, in order) so a retry encoded
// with a fresh boundary matches the first attempt. Anything else is hashed
// as raw bytes.
func requestDigest(contentType string, body []byte) string {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err == nil && mediaType == "multipart/form-data" && params["boundary"] != "" {
		if sum, ok := multipartDigest(body, params["boundary"]); ok {
			return sum
		}
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

func multipartDigest(body []byte, boundary string) (string, bool) {
	mr := multipart.NewReader(bytes.NewReader(body), boundary)
	h := sha256.New()
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return hex.EncodeToString(h.Sum(nil)), true
		}
		if err != nil {
			return "", false
		}
		content := sha256.New()
		_, err = io.Copy(content, part)
		_ = part.Close()
		if err != nil {
			return "", false
		}
		fmt.Fprintf(h, "%q %q %x\n", part.FormName(), part.FileName(), content.Sum(nil))
	}
}

// claim stores an in-progress entry unless the key is already taken.
func claim(ctx context.Context, rdb *redis.Client, key string, e replayEntry) (bool, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return false, err
	}
	return rdb.SetNX(ctx, key, payload, provisionalLockTTL).Result()
}

func loadReplay(ctx context.Context, rdb *redis.Client, key string) (replayEntry, error) {
	var e replayEntry
	v, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return e, err
	}
	if err := json.Unmarshal(v, &e); err != nil {
		return e, fmt.Errorf("decode %s: %w", key, err)
	}
	return e, nil
}

func storeReplay(ctx context.Context, rdb *redis.Client, key string, e replayEntry, ttl time.Duration) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, payload, ttl).Err()
}
