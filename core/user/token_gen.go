package user

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
)

// Reset tokens look like "<issue day in base 36>-<hex signature>". The signature covers every
// account field whose change must void outstanding links: password, last login, role and status.

const tokenSigLen = 20 // bytes of the HMAC kept in a token

var (
	tokenKeySalt = []byte("traininghub/user/password-reset")
	NowFunc      = time.Now // mockable

	errInvalidToken = errors.New("invalid token")
	errTokenExpired = errors.New("token expired")
)

// EncodeUID encodes the staff ID for use in a reset link.
func EncodeUID(usr User) string {
	return base64.RawURLEncoding.EncodeToString([]byte(usr.ID))
}

func decodeUID(uid string) (string, error) {
	id, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", errors.Wrap(err, "decoding uid")
	}
	return string(id), nil
}

func makeToken(usr User) (string, error) {
	return tokenForDay(usr, dayNumber(NowFunc()))
}

func verifyToken(usr User, token string) error {
	dayPart, _, ok := strings.Cut(token, "-")
	if !ok || dayPart == "" {
		return errInvalidToken
	}
	day, err := strconv.ParseInt(dayPart, 36, 64)
	if err != nil || day < 0 {
		return errInvalidToken
	}

	want, err := tokenForDay(usr, day)
	if err != nil {
		return err
	}
	if !hmac.Equal([]byte(want), []byte(token)) {
		return errInvalidToken
	}

	validDays := int64(core.Conf.PasswordResetTimeoutDelta / (24 * time.Hour))
	if dayNumber(NowFunc())-day > validDays {
		return errTokenExpired
	}
	return nil
}

func tokenForDay(usr User, day int64) (string, error) {
	key := sha256.Sum256(append(append([]byte{}, tokenKeySalt...), core.Conf.SecretKey...))
	mac := hmac.New(sha256.New, key[:])
	if _, err := mac.Write(tokenPayload(usr, day)); err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	sig := mac.Sum(nil)[:tokenSigLen]
	return strconv.FormatInt(day, 36) + "-" + hex.EncodeToString(sig), nil
}

// dayNumber counts whole UTC days since the Unix epoch.
func dayNumber(t time.Time) int64 {
	return t.UTC().Unix() / int64(24*time.Hour/time.Second)
}

func tokenPayload(usr User, day int64) []byte {
	var b bytes.Buffer
	field := func(s string) {
		b.WriteString(s)
		b.WriteByte(0)
	}
	field(usr.ID)
	field(usr.Role)
	field(strconv.FormatBool(usr.IsActive))
	b.Write(usr.PasswordHash)
	b.WriteByte(0)
	if usr.LastLogin.Valid {
		field(usr.LastLogin.Time.UTC().Format(time.RFC3339Nano))
	}
	field(strconv.FormatInt(day, 10))
	return b.Bytes()
}
