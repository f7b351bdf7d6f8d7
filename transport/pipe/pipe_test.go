package pipe

import (
	"sync"
	"testing"
	"time"

	"tiny-http/transport"
	"tiny-http/transport/test"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type PipeTestSuite struct {
	test.ConnTestSuite
}

func TestPipeTestSuite(t *testing.T) {
	suite.Run(t, new(PipeTestSuite))
}

func (s *PipeTestSuite) SetupTest() {
	s.ConnTestSuite.SetupTest()
	s.C1, s.C2 = Pipe("A", "B", s.Clock)
}

// Pipes are unbuffered, so a write is pending until the peer reads it.
func (s *PipeTestSuite) TestWriteBeforeClose() {
	var wg sync.WaitGroup
	defer wg.Wait()

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := s.C1.Write([]byte("hey"))
		s.ErrorIs(err, transport.ErrConnClosed)
	}()

	time.Sleep(50 * time.Millisecond)
	s.Require().NoError(s.C1.Close())
}

func (s *PipeTestSuite) TestWriteToClosedPeer() {
	s.Require().NoError(s.C2.Close())

	n, err := s.C1.Write([]byte("hey"))
	s.ErrorIs(err, transport.ErrConnClosed)
	s.Zero(n)
}

func TestDeadLineWithMockClock(t *testing.T) {
	mock := clock.NewMock()
	c1, c2 := Pipe("A", "B", mock)
	defer c1.Close()
	defer c2.Close()

	c1.SetReadDeadLine(mock.Now().Add(time.Minute))

	errc := make(chan error, 1)
	go func() {
		_, err := c1.Read(make([]byte, 1))
		errc <- err
	}()

	// The deadline fires only once the mock clock passes it.
	select {
	case err := <-errc:
		require.FailNow(t, "read returned before deadline", err)
	case <-time.After(20 * time.Millisecond):
	}

	mock.Add(time.Minute)

	select {
	case err := <-errc:
		require.ErrorIs(t, err, transport.ErrDeadLineExceeded)
	case <-time.After(time.Second):
		require.FailNow(t, "read did not return after deadline")
	}
}
