package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/visualmatch/client/internal/domain"
)

// MockSearchClient is a testify mock of domain.SearchClient
type MockSearchClient struct {
	mock.Mock
}

func (m *MockSearchClient) SearchImage(ctx context.Context, req *domain.SearchRequest) ([]domain.MatchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchResult), args.Error(1)
}

func (m *MockSearchClient) SearchURL(ctx context.Context, imageURL string) ([]domain.MatchResult, error) {
	args := m.Called(ctx, imageURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MatchResult), args.Error(1)
}

// MockPreviewStore records preview lifecycles so tests can check each handle is released exactly once
type MockPreviewStore struct {
	mu        sync.Mutex
	next      int
	created   []domain.PreviewHandle
	released   map[domain.PreviewHandle]int
	createErr  error
	releaseErr error
}

func NewMockPreviewStore() *MockPreviewStore {
	return &MockPreviewStore{released: make(map[domain.PreviewHandle]int)}
}

func (m *MockPreviewStore) Create(ctx context.Context, name, mediaType string, content []byte) (domain.PreviewHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return "", m.createErr
	}
	m.next++
	handle := domain.PreviewHandle(fmt.Sprintf("preview-%d", m.next))
	m.created = append(m.created, handle)
	return handle, nil
}

func (m *MockPreviewStore) Release(ctx context.Context, handle domain.PreviewHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released[handle]++
	if m.released[handle] > 1 {
		return domain.ErrPreviewNotFound
	}
	return m.releaseErr
}

func (m *MockPreviewStore) Created() []domain.PreviewHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.PreviewHandle(nil), m.created...)
}

func (m *MockPreviewStore) ReleaseCount(handle domain.PreviewHandle) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released[handle]
}

// Live counts created previews not yet released
func (m *MockPreviewStore) Live() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	live := 0
	for _, h := range m.created {
		if m.released[h] == 0 {
			live++
		}
	}
	return live
}

// MockObserver records selection changes
type MockObserver struct {
	mu  sync.Mutex
	ids []string
}

func (m *MockObserver) SelectionChanged(candidateID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, candidateID)
}

func (m *MockObserver) Changes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ids...)
}

// MockRecorder counts metric events
type MockRecorder struct {
	mu        sync.Mutex
	outcomes  []domain.OutcomeKind
	discarded int
	previews  int
}

func (m *MockRecorder) ObserveOutcome(kind domain.OutcomeKind, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, kind)
}

func (m *MockRecorder) ObserveDiscarded() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discarded++
}

func (m *MockRecorder) PreviewCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previews++
}

func (m *MockRecorder) PreviewReleased() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.previews--
}

// pendingCall is one request parked inside ScriptedSearchClient until the test answers it
type pendingCall struct {
	ctx   context.Context
	req   *domain.SearchRequest
	reply chan scriptedReply
}

type scriptedReply struct {
	matches []domain.MatchResult
	err     error
}

func (c *pendingCall) Respond(matches []domain.MatchResult, err error) {
	c.reply <- scriptedReply{matches: matches, err: err}
}

// ScriptedSearchClient parks every request until the test responds, so in-flight windows can be exercised
type ScriptedSearchClient struct {
	calls       chan *pendingCall
	honorCancel bool

	active    int32
	maxActive int32
}

func NewScriptedSearchClient(honorCancel bool) *ScriptedSearchClient {
	return &ScriptedSearchClient{
		calls:       make(chan *pendingCall, 16),
		honorCancel: honorCancel,
	}
}

func (c *ScriptedSearchClient) SearchImage(ctx context.Context, req *domain.SearchRequest) ([]domain.MatchResult, error) {
	n := atomic.AddInt32(&c.active, 1)
	defer atomic.AddInt32(&c.active, -1)
	for {
		peak := atomic.LoadInt32(&c.maxActive)
		if n <= peak || atomic.CompareAndSwapInt32(&c.maxActive, peak, n) {
			break
		}
	}

	call := &pendingCall{ctx: ctx, req: req, reply: make(chan scriptedReply, 1)}
	c.calls <- call

	if c.honorCancel {
		select {
		case r := <-call.reply:
			return r.matches, r.err
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", domain.ErrSearchAPIFailure, ctx.Err())
		}
	}
	r := <-call.reply
	return r.matches, r.err
}

func (c *ScriptedSearchClient) SearchURL(ctx context.Context, imageURL string) ([]domain.MatchResult, error) {
	return nil, errors.New("not scripted")
}

func (c *ScriptedSearchClient) MaxConcurrent() int32 {
	return atomic.LoadInt32(&c.maxActive)
}

// NextCall waits for the next parked request
func (c *ScriptedSearchClient) NextCall(t *testing.T) *pendingCall {
	t.Helper()
	select {
	case call := <-c.calls:
		return call
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search request")
		return nil
	}
}

// AssertNoCall fails if a request reaches the client within the wait window
func (c *ScriptedSearchClient) AssertNoCall(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case call := <-c.calls:
		t.Fatalf("unexpected search request for candidate %s", call.req.CandidateID)
	case <-time.After(wait):
	}
}

type searchResult struct {
	outcome domain.SearchOutcome
	err     error
}

func awaitResult(t *testing.T, ch <-chan searchResult) searchResult {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for search to return")
		return searchResult{}
	}
}

func sampleMatches() []domain.MatchResult {
	return []domain.MatchResult{
		{Product: domain.Product{Name: "Red Sneaker", Category: "Footwear", Image: "https://img.example/red.jpg"}, Similarity: 0.92},
		{Product: domain.Product{Name: "Blue Sneaker", Category: "Footwear", Image: "https://img.example/blue.jpg"}, Similarity: 0.81},
	}
}

var pngSignature = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func jpegFile(name string) domain.RawFile {
	return domain.RawFile{Name: name, MediaType: "image/jpeg", Content: []byte("jpeg:" + name)}
}
