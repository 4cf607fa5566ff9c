package usecase

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/pkg/errors"
)

type fakeDisputeRepo struct {
	mu            sync.Mutex
	disputes      map[string]*entity.Dispute
	statusUpdates int
	updateErr     error
	lastMsgErr    error
	lastMessages  map[string]string
	feeds         []chan []*entity.Dispute
	// onStatusUpdate runs before a status write is applied.
	onStatusUpdate func()
}

func newFakeDisputeRepo(disputes ...*entity.Dispute) *fakeDisputeRepo {
	r := &fakeDisputeRepo{disputes: map[string]*entity.Dispute{}, lastMessages: map[string]string{}}
	for _, d := range disputes {
		r.disputes[d.ID] = d
	}
	return r
}

func (r *fakeDisputeRepo) snapshot() []*entity.Dispute {
	out := make([]*entity.Dispute, 0, len(r.disputes))
	for _, d := range r.disputes {
		copied := *d
		out = append(out, &copied)
	}
	return out
}

// push delivers the current state to every live subscriber.
func (r *fakeDisputeRepo) push() {
	r.mu.Lock()
	snap := r.snapshot()
	feeds := append([]chan []*entity.Dispute(nil), r.feeds...)
	r.mu.Unlock()
	for _, f := range feeds {
		f <- snap
	}
}

func (r *fakeDisputeRepo) Subscribe(ctx context.Context) *repository.Subscription[[]*entity.Dispute] {
	feed := make(chan []*entity.Dispute, 8)
	r.mu.Lock()
	r.feeds = append(r.feeds, feed)
	r.mu.Unlock()
	return repository.Subscribe(ctx, func(ctx context.Context, emit func([]*entity.Dispute) bool) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap := <-feed:
				if !emit(snap) {
					return nil
				}
			}
		}
	})
}

func (r *fakeDisputeRepo) List(ctx context.Context, statuses ...entity.DisputeStatus) ([]*entity.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshot(), nil
}

func (r *fakeDisputeRepo) GetByID(ctx context.Context, id string) (*entity.Dispute, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.disputes[id]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}
	copied := *d
	return &copied, nil
}

func (r *fakeDisputeRepo) UpdateStatus(ctx context.Context, id string, status entity.DisputeStatus, at time.Time) (*entity.StatusChange, error) {
	if r.onStatusUpdate != nil {
		r.onStatusUpdate()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	d, ok := r.disputes[id]
	if !ok {
		return nil, errors.NotFound("Dispute", nil)
	}
	r.statusUpdates++
	change := &entity.StatusChange{DisputeID: id, Status: status, UpdatedAt: at}
	if status == entity.StatusResolved {
		resolvedAt := at
		change.ResolvedAt = &resolvedAt
	}
	d.Apply(change)
	return change, nil
}

func (r *fakeDisputeRepo) UpdateLastMessage(ctx context.Context, id, preview string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastMsgErr != nil {
		return r.lastMsgErr
	}
	r.lastMessages[id] = preview
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string][]*entity.Message
	feed     chan []*entity.Message
	listErr  error
	seq      int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: map[string][]*entity.Message{}, feed: make(chan []*entity.Message, 8)}
}

func (r *fakeMessageRepo) ListByDispute(ctx context.Context, disputeID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	return append([]*entity.Message(nil), r.messages[disputeID]...), nil
}

func (r *fakeMessageRepo) Subscribe(ctx context.Context, disputeID string) *repository.Subscription[[]*entity.Message] {
	return repository.Subscribe(ctx, func(ctx context.Context, emit func([]*entity.Message) bool) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case snap, ok := <-r.feed:
				if !ok {
					return errors.Listener("messages", fmt.Errorf("stream reset"))
				}
				if !emit(snap) {
					return nil
				}
			}
		}
	})
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	message.ID = fmt.Sprintf("m%d", r.seq)
	message.Timestamp = time.Date(2024, time.January, 1, 0, 0, r.seq, 0, time.UTC)
	r.messages[message.DisputeID] = append(r.messages[message.DisputeID], message)
	return nil
}

type fakeStatsCache struct {
	mu          sync.Mutex
	stats       *entity.DisputeStatistics
	invalidated int
}

func (c *fakeStatsCache) Get(ctx context.Context) (*entity.DisputeStatistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats, nil
}

func (c *fakeStatsCache) Set(ctx context.Context, stats *entity.DisputeStatistics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = stats
	return nil
}

func (c *fakeStatsCache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = nil
	c.invalidated++
	return nil
}

type fakeFiles struct {
	objectName string
	body       string
	size       int64
	err        error
}

func (f *fakeFiles) UploadObject(ctx context.Context, r io.Reader, size int64, contentType, objectName string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objectName = objectName
	f.body = string(raw)
	f.size = size
	return "https://files.example.com/" + objectName, nil
}

func (f *fakeFiles) Close() error { return nil }

type fakeIdentity struct {
	accounts map[string]string // email -> password
	uids     map[string]string // email -> uid
	tokens   map[string]string // token -> uid
	revoked  []string
	created  int
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{accounts: map[string]string{}, uids: map[string]string{}, tokens: map[string]string{}}
}

func (f *fakeIdentity) SignIn(ctx context.Context, email, password string) (*entity.Credentials, error) {
	if pw, ok := f.accounts[email]; !ok || pw != password {
		return nil, errors.InvalidCredentials(nil)
	}
	uid := f.uids[email]
	token := "token-" + uid
	f.tokens[token] = uid
	return &entity.Credentials{UID: uid, Email: email, IDToken: token, RefreshToken: "refresh-" + uid, ExpiresIn: time.Hour}, nil
}

func (f *fakeIdentity) Refresh(ctx context.Context, refreshToken string) (*entity.Credentials, error) {
	for _, uid := range f.uids {
		if refreshToken == "refresh-"+uid {
			return &entity.Credentials{UID: uid, IDToken: "token2-" + uid, RefreshToken: refreshToken, ExpiresIn: time.Hour}, nil
		}
	}
	return nil, errors.InvalidCredentials(nil)
}

func (f *fakeIdentity) VerifyToken(ctx context.Context, idToken string) (string, error) {
	uid, ok := f.tokens[idToken]
	if !ok {
		return "", errors.Unauthorized("Invalid or expired token", nil)
	}
	return uid, nil
}

func (f *fakeIdentity) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	f.created++
	uid := fmt.Sprintf("uid-%d", f.created)
	f.accounts[email] = password
	f.uids[email] = uid
	return uid, nil
}

func (f *fakeIdentity) RevokeSession(ctx context.Context, uid string) error {
	f.revoked = append(f.revoked, uid)
	for token, owner := range f.tokens {
		if owner == uid {
			delete(f.tokens, token)
		}
	}
	return nil
}

type fakeSupportUsers struct {
	users       map[string]*entity.SupportUser
	initialized bool
}

func newFakeSupportUsers() *fakeSupportUsers {
	return &fakeSupportUsers{users: map[string]*entity.SupportUser{}}
}

func (r *fakeSupportUsers) Create(ctx context.Context, user *entity.SupportUser) error {
	r.users[user.UID] = user
	return nil
}

func (r *fakeSupportUsers) GetByID(ctx context.Context, uid string) (*entity.SupportUser, error) {
	u, ok := r.users[uid]
	if !ok {
		return nil, errors.NotFound("Support user", nil)
	}
	return u, nil
}

func (r *fakeSupportUsers) IsInitialized(ctx context.Context) (bool, error) {
	return r.initialized, nil
}

func (r *fakeSupportUsers) MarkInitialized(ctx context.Context) error {
	r.initialized = true
	return nil
}
