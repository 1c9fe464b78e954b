package pop3

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/knadh/go-pop3"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mherrors "github.com/customeros/mailharvest/internal/errors"
	"github.com/customeros/mailharvest/internal/logger"
	"github.com/customeros/mailharvest/internal/models"
)

type fakeConn struct {
	total    int
	failRetr map[int]bool
	raw      map[int]string

	userErr error
	passErr error
	listErr error
	quitErr error

	users     []string
	retrieved []int
	quitCalls int
}

func newFakeConn(total int) *fakeConn {
	return &fakeConn{total: total, failRetr: map[int]bool{}, raw: map[int]string{}}
}

func (f *fakeConn) User(user string) error {
	f.users = append(f.users, user)
	return f.userErr
}

func (f *fakeConn) Pass(password string) error {
	return f.passErr
}

func (f *fakeConn) List(msgID int) ([]pop3.MessageID, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	ids := make([]pop3.MessageID, 0, f.total)
	for i := 1; i <= f.total; i++ {
		ids = append(ids, pop3.MessageID{ID: i, Size: 100})
	}
	return ids, nil
}

func (f *fakeConn) RetrRaw(msgID int) (*bytes.Buffer, error) {
	f.retrieved = append(f.retrieved, msgID)
	if f.failRetr[msgID] {
		return nil, errors.New("-ERR no such message")
	}
	if raw, ok := f.raw[msgID]; ok {
		return bytes.NewBufferString(raw), nil
	}
	return bytes.NewBufferString(fmt.Sprintf("Subject: message %d\r\nFrom: sender@example.com\r\n\r\nbody %d\r\n", msgID, msgID)), nil
}

func (f *fakeConn) Quit() error {
	f.quitCalls++
	return f.quitErr
}

func subjects(batch models.MessageBatch) []string {
	out := make([]string, 0, len(batch))
	for _, m := range batch {
		out = append(out, m.Subject)
	}
	return out
}

func newSession(conn *fakeConn) *pop3Session {
	return &pop3Session{conn: conn, log: logger.NewNopLogger()}
}

func TestFetchRecent_NewestFirst(t *testing.T) {
	conn := newFakeConn(15)

	batch, err := newSession(conn).FetchRecent(context.Background(), 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"message 15", "message 14", "message 13", "message 12", "message 11"}, subjects(batch))
	assert.Equal(t, []int{15, 14, 13, 12, 11}, conn.retrieved)
	assert.Equal(t, "body 15", batch[0].Body)
	assert.Equal(t, "", batch[0].DateRaw)
}

func TestFetchRecent_RangeBoundaries(t *testing.T) {
	tests := []struct {
		total, max int
		want       []int
	}{
		{total: 5, max: 5, want: []int{5, 4, 3, 2, 1}},
		{total: 3, max: 10, want: []int{3, 2, 1}},
		{total: 11, max: 10, want: []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}},
		{total: 7, max: 1, want: []int{7}},
		{total: 1, max: 1, want: []int{1}},
	}
	for _, tc := range tests {
		t.Run(fmt.Sprintf("total=%d,max=%d", tc.total, tc.max), func(t *testing.T) {
			conn := newFakeConn(tc.total)
			batch, err := newSession(conn).FetchRecent(context.Background(), tc.max)
			require.NoError(t, err)

			assert.Equal(t, tc.want, conn.retrieved)
			require.Len(t, batch, len(tc.want))
			for i, n := range tc.want {
				assert.Equal(t, fmt.Sprintf("message %d", n), batch[i].Subject)
			}
		})
	}
}

func TestFetchRecent_EmptyMailbox(t *testing.T) {
	conn := newFakeConn(0)

	batch, err := newSession(conn).FetchRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, batch)
	assert.Empty(t, batch)
	assert.Empty(t, conn.retrieved)
}

func TestFetchRecent_FailedMessageIsNotBackfilled(t *testing.T) {
	conn := newFakeConn(10)
	conn.failRetr[9] = true

	batch, err := newSession(conn).FetchRecent(context.Background(), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"message 10", "message 8"}, subjects(batch))
	assert.Equal(t, []int{10, 9, 8}, conn.retrieved)
}

func TestFetchRecent_ListFailure(t *testing.T) {
	conn := newFakeConn(3)
	conn.listErr = errors.New("-ERR mailbox locked")

	batch, err := newSession(conn).FetchRecent(context.Background(), 3)
	require.Error(t, err)
	assert.Nil(t, batch)
	assert.True(t, errors.Is(err, mherrors.ErrFetchFailed))
}

func TestFetchRecent_RemovesDotStuffing(t *testing.T) {
	conn := newFakeConn(1)
	conn.raw[1] = "Subject: dots\r\n\r\n..hidden dot line\r\nplain line\r\n...\r\n"

	batch, err := newSession(conn).FetchRecent(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, batch, 1)
	assert.Equal(t, ".hidden dot line\r\nplain line\r\n..", batch[0].Body)
}

func TestUnstuffDots(t *testing.T) {
	tests := map[string]string{
		"":                           "",
		"no dots\r\n":                "no dots\r\n",
		"..one\r\n":                  ".one\r\n",
		"a\r\n..b\r\n.c\r\n":         "a\r\n.b\r\n.c\r\n",
		"line with .. inside\n..x\n": "line with .. inside\n.x\n",
		"....":                       "...",
	}
	for in, want := range tests {
		assert.Equal(t, want, string(unstuffDots([]byte(in))), in)
	}
}

func TestRecentRange(t *testing.T) {
	first, last := recentRange(15, 5)
	assert.Equal(t, 11, first)
	assert.Equal(t, 15, last)

	first, last = recentRange(3, 10)
	assert.Equal(t, 1, first)
	assert.Equal(t, 3, last)
}

func TestClose_SendsQuitAndSwallowsErrors(t *testing.T) {
	conn := newFakeConn(0)
	conn.quitErr = errors.New("connection reset by peer")

	assert.NotPanics(t, func() { newSession(conn).Close(context.Background()) })
	assert.Equal(t, 1, conn.quitCalls)
}

func TestConnect(t *testing.T) {
	cfg := Config{Server: "pop.example.com", Port: 995, Username: "me@example.com", Password: "pw"}

	t.Run("success", func(t *testing.T) {
		conn := newFakeConn(0)
		var gotOpt pop3.Opt
		svc := newPOP3Service(cfg, logger.NewNopLogger(), func(opt pop3.Opt) (pop3Conn, error) {
			gotOpt = opt
			return conn, nil
		})

		session, err := svc.Connect(context.Background())
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, "pop.example.com", gotOpt.Host)
		assert.Equal(t, 995, gotOpt.Port)
		assert.True(t, gotOpt.TLSEnabled)
		assert.False(t, gotOpt.TLSSkipVerify)
		assert.Equal(t, 30*time.Second, gotOpt.DialTimeout)
		assert.Equal(t, []string{"me@example.com"}, conn.users)
		assert.Equal(t, "POP3", svc.Protocol())
	})

	t.Run("dial failure", func(t *testing.T) {
		svc := newPOP3Service(cfg, logger.NewNopLogger(), func(pop3.Opt) (pop3Conn, error) {
			return nil, errors.New("dial tcp: i/o timeout")
		})

		_, err := svc.Connect(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, mherrors.ErrConnectionFailed))
	})

	t.Run("password rejected", func(t *testing.T) {
		conn := newFakeConn(0)
		conn.passErr = errors.New("-ERR authentication failed")
		svc := newPOP3Service(cfg, logger.NewNopLogger(), func(pop3.Opt) (pop3Conn, error) {
			return conn, nil
		})

		_, err := svc.Connect(context.Background())
		require.Error(t, err)
		assert.True(t, errors.Is(err, mherrors.ErrConnectionFailed))
		assert.Contains(t, err.Error(), "PASS")
		assert.Equal(t, 1, conn.quitCalls)
	})
}
