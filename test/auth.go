//go:build integration_test || all_tests

package test

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"

	"github.com/2beens/rerack/internal/auth"
)

// doLogin opens a session directly in the shared session store and returns its token.
func doLogin(ctx context.Context, t *testing.T, redisClient *redis.Client, userID string) string {
	sess, err := auth.NewSessionStore(time.Hour, redisClient).Login(ctx, userID, time.Now())
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	return sess.Token
}
