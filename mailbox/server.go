package mailbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/YasiruR/didcomm-envelope/domain"
	"github.com/YasiruR/didcomm-envelope/domain/models"
	"github.com/gorilla/mux"
	"github.com/tryfix/log"
)

const (
	MailboxEndpoint = `/mailboxes/{id}`
	NextEndpoint    = `/mailboxes/{id}/next`
	RequeueEndpoint = `/mailboxes/{id}/requeue`
	HeaderReceived  = `X-Received-At`
	// upper bound of a single long poll
	maxWait = 30 * time.Second
)

// Publisher pushes delivered messages to live subscribers
type Publisher interface {
	Publish(id string, data []byte) error
}

// Server exposes a memory mailbox over http as a hosted relay
type Server struct {
	box    *Memory
	pub    Publisher
	router *mux.Router
	log    log.Logger
}

func NewServer(box *Memory, logger log.Logger) *Server {
	s := &Server{box: box, log: logger, router: mux.NewRouter()}
	s.router.HandleFunc(MailboxEndpoint, s.handleCreate).Methods(http.MethodPut)
	s.router.HandleFunc(MailboxEndpoint, s.handleDeliver).Methods(http.MethodPost)
	s.router.HandleFunc(NextEndpoint, s.handleNext).Methods(http.MethodGet)
	s.router.HandleFunc(RequeueEndpoint, s.handleRequeue).Methods(http.MethodPost)
	return s
}

// SetPublisher forwards every delivery to the publisher in addition to queueing it
func (s *Server) SetPublisher(p Publisher) {
	s.pub = p
}

func (s *Server) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	s.router.ServeHTTP(w, req)
}

func (s *Server) handleCreate(w http.ResponseWriter, req *http.Request) {
	endpoint, err := s.box.CreateMailbox(req.Context(), mux.Vars(req)[`id`])
	if err != nil {
		s.log.Error(`relay`, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set(`Content-Type`, `application/json`)
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{`endpoint`: endpoint})
}

func (s *Server) handleDeliver(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		s.log.Error(`relay`, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id := mux.Vars(req)[`id`]
	if err = s.box.StoreMessage(req.Context(), id, data); err != nil {
		writeErr(w, err)
		return
	}

	if s.pub != nil {
		if err = s.pub.Publish(id, data); err != nil {
			s.log.Error(`relay`, fmt.Sprintf(`publishing message of %s failed - %v`, id, err))
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

// handleNext pops the oldest message, waiting up to the duration in the
// wait query parameter (milliseconds)
func (s *Server) handleNext(w http.ResponseWriter, req *http.Request) {
	wait, _ := strconv.Atoi(req.URL.Query().Get(`wait`))
	timeout := time.Duration(wait) * time.Millisecond
	if timeout > maxWait {
		timeout = maxWait
	}

	id := mux.Vars(req)[`id`]
	msg, err := s.box.waitForInbound(req.Context(), id, timeout)
	if err != nil {
		if errors.Is(err, domain.ErrTimeout) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeErr(w, err)
		return
	}

	// the poller is gone and would never receive the message
	if req.Context().Err() != nil {
		if err = s.box.Requeue(context.Background(), id, msg); err != nil {
			s.log.Error(`relay`, fmt.Sprintf(`requeueing message of %s failed - %v`, id, err))
		}
		return
	}

	w.Header().Set(`Content-Type`, domain.EnvelopeMediaType)
	w.Header().Set(HeaderReceived, msg.ReceivedAt.UTC().Format(time.RFC3339Nano))
	_, _ = w.Write(msg.Data)
}

// handleRequeue puts back a message a client polled but could not hand over
func (s *Server) handleRequeue(w http.ResponseWriter, req *http.Request) {
	defer req.Body.Close()
	data, err := io.ReadAll(req.Body)
	if err != nil {
		s.log.Error(`relay`, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	receivedAt, err := time.Parse(time.RFC3339Nano, req.Header.Get(HeaderReceived))
	if err != nil {
		receivedAt = time.Now()
	}

	msg := models.InboundMessage{Data: data, ReceivedAt: receivedAt}
	if err = s.box.Requeue(req.Context(), mux.Vars(req)[`id`], msg); err != nil {
		writeErr(w, err)
		return
	}

	w.WriteHeader(http.StatusAccepted)
}

func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
