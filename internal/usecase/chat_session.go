package usecase

import (
	"context"
	"sync"

	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	"disputedesk/pkg/logger"
)

type ChatState string

const (
	ChatStateClosed  ChatState = "closed"
	ChatStateLoading ChatState = "loading"
	ChatStateReady   ChatState = "ready"
	ChatStateError   ChatState = "error"
)

// ChatEvent is a full picture of a session at one point in time.
type ChatEvent struct {
	DisputeID string            `json:"dispute_id"`
	State     ChatState         `json:"state"`
	Dispute   *entity.Dispute   `json:"dispute,omitempty"`
	Messages  []*entity.Message `json:"messages,omitempty"`
	Err       error             `json:"-"`
}

// ChatSession is one agent's view of one dispute chat:
// closed -> loading -> ready -> (error | closed). Open from error retries.
type ChatSession struct {
	chat      *ChatUseCase
	user      *entity.SupportUser
	disputeID string

	openMu sync.Mutex

	mu       sync.Mutex
	state    ChatState
	gen      uint64
	dispute  *entity.Dispute
	messages []*entity.Message
	err      error
	sub      *repository.Subscription[[]*entity.Message]

	events chan ChatEvent
}

func (uc *ChatUseCase) NewSession(user *entity.SupportUser, disputeID string) *ChatSession {
	return &ChatSession{
		chat:      uc,
		user:      user,
		disputeID: disputeID,
		state:     ChatStateClosed,
		events:    make(chan ChatEvent, 1),
	}
}

func (s *ChatSession) DisputeID() string {
	return s.disputeID
}

// Events delivers the latest state. A slow reader skips intermediate events
// but always sees the most recent one.
func (s *ChatSession) Events() <-chan ChatEvent {
	return s.events
}

func (s *ChatSession) State() ChatState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ChatSession) Snapshot() ChatEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *ChatSession) snapshotLocked() ChatEvent {
	messages := make([]*entity.Message, len(s.messages))
	copy(messages, s.messages)
	return ChatEvent{
		DisputeID: s.disputeID,
		State:     s.state,
		Dispute:   s.dispute,
		Messages:  messages,
		Err:       s.err,
	}
}

// publishLocked replaces any undelivered event with the current one.
func (s *ChatSession) publishLocked() {
	ev := s.snapshotLocked()
	for {
		select {
		case s.events <- ev:
			return
		default:
		}
		select {
		case <-s.events:
		default:
		}
	}
}

// Open performs the implicit New -> Open transition, then enters loading,
// fetches the history and starts following new messages until ctx ends or
// Close is called. Opening a loading or ready session does nothing.
func (s *ChatSession) Open(ctx context.Context) error {
	s.openMu.Lock()
	defer s.openMu.Unlock()

	s.mu.Lock()
	if s.state == ChatStateLoading || s.state == ChatStateReady {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	dispute, err := s.chat.OpenDispute(ctx, s.disputeID)
	if err != nil {
		return s.fail(gen, err)
	}

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return nil
	}
	s.state = ChatStateLoading
	s.err = nil
	s.dispute = dispute
	s.publishLocked()
	s.mu.Unlock()

	messages, err := s.chat.FetchMessages(ctx, s.disputeID)
	if err != nil {
		return s.fail(gen, err)
	}

	sub := s.chat.SubscribeMessages(ctx, s.disputeID)

	s.mu.Lock()
	if s.gen != gen {
		// Closed while loading.
		s.mu.Unlock()
		sub.Close()
		return nil
	}
	s.messages = messages
	s.sub = sub
	s.state = ChatStateReady
	s.publishLocked()
	s.mu.Unlock()

	go s.follow(gen, sub)
	return nil
}

func (s *ChatSession) fail(gen uint64, err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return err
	}
	logger.Warn("Chat session for dispute %s failed: %v", s.disputeID, err)
	s.state = ChatStateError
	s.err = err
	s.publishLocked()
	return err
}

func (s *ChatSession) follow(gen uint64, sub *repository.Subscription[[]*entity.Message]) {
	for messages := range sub.Updates() {
		s.mu.Lock()
		if s.gen == gen {
			s.messages = messages
			s.publishLocked()
		}
		s.mu.Unlock()
	}

	err := <-sub.Err()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return
	}
	s.sub = nil
	if err != nil {
		logger.Warn("Message listener for dispute %s stopped: %v", s.disputeID, err)
		s.state = ChatStateError
		s.err = err
	} else {
		s.state = ChatStateClosed
	}
	s.publishLocked()
}

// Send posts input as the session's agent. It is a no-op returning (nil, nil)
// unless the session is ready and input has content.
func (s *ChatSession) Send(ctx context.Context, input SendMessageInput) (*SendResult, error) {
	s.mu.Lock()
	ready := s.state == ChatStateReady
	s.mu.Unlock()

	if !ready || s.user == nil || input.normalized().empty() {
		return nil, nil
	}
	return s.chat.SendMessage(ctx, s.user, s.disputeID, input)
}

// Close stops following messages and drops the cached history. Safe to call
// more than once.
func (s *ChatSession) Close() {
	s.mu.Lock()
	// Bumped even when already closed so an Open still in its transition
	// step does not continue.
	s.gen++
	if s.state == ChatStateClosed && s.sub == nil {
		s.mu.Unlock()
		return
	}
	sub := s.sub
	s.sub = nil
	s.state = ChatStateClosed
	s.messages = nil
	s.err = nil
	s.publishLocked()
	s.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
