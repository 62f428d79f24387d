package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/royavalet/valet-site/internal/core/domain"
	"github.com/royavalet/valet-site/internal/core/ports"
)

type stubReply struct {
	resp *ports.Response
	err  error
}

type stubCall struct {
	method   string
	endpoint string
	opts     ports.RequestOptions
	token    string
}

// stubClient answers by "METHOD endpoint" and records every call. When
// tokens is set, the token an IncludeAuth call would carry is recorded too.
type stubClient struct {
	mu      sync.Mutex
	replies map[string]stubReply
	calls   []stubCall
	tokens  ports.TokenSource
}

func newStubClient() *stubClient {
	return &stubClient{replies: make(map[string]stubReply)}
}

func (c *stubClient) on(method, endpoint string, resp *ports.Response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replies[method+" "+endpoint] = stubReply{resp: resp, err: err}
}

func (c *stubClient) Request(ctx context.Context, endpoint string, opts ports.RequestOptions) (*ports.Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	call := stubCall{method: method, endpoint: endpoint, opts: opts}
	if opts.IncludeAuth && c.tokens != nil {
		call.token, _ = c.tokens.Token(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
	r, ok := c.replies[method+" "+endpoint]
	if !ok {
		return nil, &domain.ServerError{Status: http.StatusNotFound}
	}
	return r.resp, r.err
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *stubClient) lastCall() stubCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[len(c.calls)-1]
}

func envelope(status int, success bool, message string, data any) *ports.Response {
	resp := &ports.Response{Status: status, Envelope: ports.Envelope{Success: success, Message: message}}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			panic(err)
		}
		resp.Envelope.Data = b
	}
	return resp
}

func unreachable() *ports.Response {
	return &ports.Response{Failure: &ports.Failure{
		Kind:    ports.FailureUnreachable,
		Message: "Network error. Please check if the backend server is running.",
	}}
}

type stubStorage struct {
	mu      sync.Mutex
	records map[string]domain.SessionRecord
	getErr  error
	putErr  error
	delErr  error
	deleted []string
}

func newStubStorage() *stubStorage {
	return &stubStorage{records: make(map[string]domain.SessionRecord)}
}

func (s *stubStorage) Get(_ context.Context, sid string) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return domain.SessionRecord{}, s.getErr
	}
	rec, ok := s.records[sid]
	if !ok {
		return domain.SessionRecord{}, domain.ErrSessionNotFound
	}
	return rec, nil
}

func (s *stubStorage) Put(_ context.Context, sid string, rec domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	if rec.Expired(time.Now()) {
		return domain.ErrSessionExpired
	}
	s.records[sid] = rec
	return nil
}

func (s *stubStorage) Delete(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, sid)
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.records, sid)
	return nil
}

func (s *stubStorage) Ping(context.Context) error { return nil }

func (s *stubStorage) record(sid string) (domain.SessionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[sid]
	return rec, ok
}
