package mailbox

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/YasiruR/didcomm-envelope/log"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent map[string][][]byte
}

func (p *recordingPublisher) Publish(id string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent[id] = append(p.sent[id], data)
	return nil
}

func TestServer(t *testing.T) {
	box, err := NewMemory(`https://relay.example.com/mailboxes`, false, log.NewLogger(false, ``))
	require.NoError(t, err)

	pub := &recordingPublisher{sent: map[string][][]byte{}}
	srv := NewServer(box, log.NewLogger(false, ``))
	srv.SetPublisher(pub)

	do := func(method, target string, body []byte) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(method, target, bytes.NewReader(body)))
		return rec
	}

	rec := do(http.MethodPost, `/mailboxes/mb-A`, []byte(`early`))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodPut, `/mailboxes/mb-A`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, `https://relay.example.com/mailboxes/mb-A`, created[`endpoint`])

	rec = do(http.MethodGet, `/mailboxes/mb-A/next?wait=10`, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	stored := time.Now()
	rec = do(http.MethodPost, `/mailboxes/mb-A`, []byte(`packed`))
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, [][]byte{[]byte(`packed`)}, pub.sent[`mb-A`])

	time.Sleep(100 * time.Millisecond)
	rec = do(http.MethodGet, `/mailboxes/mb-A/next`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `packed`, rec.Body.String())

	// reported as received when stored, not when polled
	receivedAt, err := time.Parse(time.RFC3339Nano, rec.Header().Get(HeaderReceived))
	require.NoError(t, err)
	require.WithinDuration(t, stored, receivedAt, 50*time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, `/mailboxes/mb-A/requeue`, bytes.NewReader([]byte(`packed`)))
	req.Header.Set(HeaderReceived, rec.Header().Get(HeaderReceived))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, pub.sent[`mb-A`], 1)

	msg, err := box.waitForInbound(context.Background(), `mb-A`, time.Second)
	require.NoError(t, err)
	require.Equal(t, `packed`, string(msg.Data))
	require.True(t, receivedAt.Equal(msg.ReceivedAt))

	rec = do(http.MethodPost, `/mailboxes/missing/requeue`, []byte(`packed`))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(http.MethodGet, `/mailboxes/missing/next`, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
