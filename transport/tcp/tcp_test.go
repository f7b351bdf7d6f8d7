package tcp

import (
	"context"
	"testing"
	"time"

	"tiny-http/transport"
	"tiny-http/transport/test"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"
)

type TCPConnTestSuite struct {
	test.ConnTestSuite
}

func TestTCPConnTestSuite(t *testing.T) {
	suite.Run(t, new(TCPConnTestSuite))
}

func (s *TCPConnTestSuite) SetupTest() {
	s.ConnTestSuite.SetupTest()

	l, err := Listen(context.Background(), "127.0.0.1:0")
	s.Require().NoError(err)
	defer l.Close()

	accepted := make(chan transport.Conn, 1)
	go func() {
		c, err := l.Accept(context.Background())
		s.NoError(err)
		accepted <- c
	}()

	var d Dialer
	s.C1, err = d.Dial(context.Background(), l.Addr())
	s.Require().NoError(err)
	s.C2 = <-accepted
	s.Require().NotNil(s.C2)
}

type ListenerTestSuite struct {
	suite.Suite

	l *listener
}

func TestListenerTestSuite(t *testing.T) {
	suite.Run(t, new(ListenerTestSuite))
}

func (s *ListenerTestSuite) SetupTest() {
	var err error
	s.l, err = Listen(context.Background(), "127.0.0.1:0")
	s.Require().NoError(err)
}

func (s *ListenerTestSuite) TearDownTest() {
	defer goleak.VerifyNone(s.T())
	s.l.Close()
}

func (s *ListenerTestSuite) TestAddr() {
	s.Equal("tcp", s.l.Addr().Network())
	s.NotEqual("127.0.0.1:0", s.l.Addr().String())
}

func (s *ListenerTestSuite) TestAcceptCancels() {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	conn, err := s.l.Accept(ctx)
	s.ErrorIs(err, context.DeadlineExceeded)
	s.Nil(conn)
}

func (s *ListenerTestSuite) TestAcceptAfterCancel() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.l.Accept(ctx)
	s.ErrorIs(err, context.Canceled)

	accepted := make(chan error, 1)
	go func() {
		c, err := s.l.Accept(context.Background())
		if err == nil {
			c.Close()
		}
		accepted <- err
	}()

	var d Dialer
	c, err := d.Dial(context.Background(), s.l.Addr())
	s.Require().NoError(err)
	defer c.Close()

	s.NoError(<-accepted)
}

func (s *ListenerTestSuite) TestClose() {
	s.Require().NoError(s.l.Close())

	conn, err := s.l.Accept(context.Background())
	s.ErrorIs(err, transport.ErrConnListenerClosed)
	s.Nil(conn)
}
