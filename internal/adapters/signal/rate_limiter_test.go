package signal

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

func TestInviteRateLimiter(t *testing.T) {
	clk := clock.NewMock()
	rl := NewInviteRateLimiter(clk, 2, time.Minute)

	require.True(t, rl.Allow("alice"))
	require.True(t, rl.Allow("alice"))
	require.False(t, rl.Allow("alice"))
	require.True(t, rl.Allow("bob"), "limits are per identity")

	clk.Add(30 * time.Second)
	require.False(t, rl.Allow("alice"))

	clk.Add(31 * time.Second)
	require.True(t, rl.Allow("alice"))
}
