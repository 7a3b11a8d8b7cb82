package postgres

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/avolkhin/roost/internal/server/store"
)

// One-time passwords are keyed otp:<localpart>:<otp> with the TTL set
// at issue time, so expiry needs no reaper. GETDEL makes consumption
// atomic; two concurrent consumers see at most one success.

const otpKeyPrefix = "otp"

func otpKey(localpart, otp string) string {
	return otpKeyPrefix + ":" + localpart + ":" + otp
}

func (s *Store) IssueOTP(ctx context.Context, localpart, otp string, ttl time.Duration) error {
	if err := s.otp.Set(ctx, otpKey(localpart, otp), "1", ttl).Err(); err != nil {
		return mapRedisError(err)
	}
	return nil
}

func (s *Store) OTPExists(ctx context.Context, localpart, otp string) (bool, error) {
	n, err := s.otp.Exists(ctx, otpKey(localpart, otp)).Result()
	if err != nil {
		return false, mapRedisError(err)
	}
	return n > 0, nil
}

func (s *Store) ConsumeOTP(ctx context.Context, localpart, otp string) (bool, error) {
	_, err := s.otp.GetDel(ctx, otpKey(localpart, otp)).Result()
	if err != nil {
		// consumed and never-issued both read as absent
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, mapRedisError(err)
	}
	return true, nil
}

// mapRedisError normalizes go-redis failures. redis.Nil never reaches
// this point; the call sites treat it as a negative result.
func mapRedisError(err error) error {
	if errors.Is(err, redis.ErrClosed) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		return store.NewError(store.KindConnectionFailed, "", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return store.NewError(store.KindConnectionFailed, "", err)
	}

	return store.NewError(store.KindUnknown, err.Error(), err)
}
