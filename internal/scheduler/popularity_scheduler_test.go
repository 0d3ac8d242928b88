package scheduler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	calls []int
	err   error
}

func (s *stubRefresher) RefreshPopular(topN int) ([]uint, error) {
	s.calls = append(s.calls, topN)
	if s.err != nil {
		return nil, s.err
	}
	return []uint{3, 1}, nil
}

func TestPopularityScheduler_RunNow(t *testing.T) {
	stub := &stubRefresher{}
	s := NewPopularityScheduler(stub, "0 3 * * *", 4)

	require.NoError(t, s.RunNow())
	assert.Equal(t, []int{4}, stub.calls)

	stub.err = errors.New("db down")
	assert.Error(t, s.RunNow())
}

func TestPopularityScheduler_StartStop(t *testing.T) {
	s := NewPopularityScheduler(&stubRefresher{}, "0 3 * * *", 4)
	require.NoError(t, s.Start())
	s.Stop()

	bad := NewPopularityScheduler(&stubRefresher{}, "every tuesday", 4)
	assert.Error(t, bad.Start())
}
