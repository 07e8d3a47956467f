package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	cacheport "github.com/thorep/stallplass-sub008/internal/infrastructure/cache/port"
	messaging "github.com/thorep/stallplass-sub008/internal/pkg/messaging/application/domain"
	repository "github.com/thorep/stallplass-sub008/internal/pkg/messaging/persistence/repository/port"
)

// memRepo is an in-memory ConversationRepository used across the use case tests.
type memRepo struct {
	mu        sync.Mutex
	convs     map[string]messaging.Conversation
	msgs      map[string][]messaging.Message
	failTouch bool
	seq       int
}

var _ repository.ConversationRepository = (*memRepo)(nil)

func newMemRepo() *memRepo {
	return &memRepo{
		convs: make(map[string]messaging.Conversation),
		msgs:  make(map[string][]messaging.Message),
	}
}

func (r *memRepo) addConversation(id, renterID, ownerID string) {
	now := time.Now().UTC()
	r.convs[id] = messaging.Conversation{
		ID:             id,
		RenterID:       renterID,
		StableID:       "stable-1",
		StableOwnerID:  ownerID,
		Status:         messaging.ConversationOpen,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

func (r *memRepo) closeConversation(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.convs[id]
	c.Status = messaging.ConversationClosed
	r.convs[id] = c
}

func (r *memRepo) GetConversation(_ context.Context, id string) (*messaging.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := c
	return &cp, nil
}

func (r *memRepo) CreateConversation(_ context.Context, c messaging.Conversation) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	c.ID = fmt.Sprintf("conv-%03d", r.seq)
	r.convs[c.ID] = c
	return c.ID, nil
}

func (r *memRepo) TouchConversation(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failTouch {
		return errors.New("touch failed")
	}
	c, ok := r.convs[id]
	if !ok {
		return repository.ErrNotFound
	}
	if at.After(c.LastActivityAt) {
		c.LastActivityAt = at
	}
	r.convs[id] = c
	return nil
}

func (r *memRepo) SaveMessage(_ context.Context, m messaging.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.ID = fmt.Sprintf("msg-%03d", r.seq)
	r.msgs[m.ConversationID] = append(r.msgs[m.ConversationID], m)
	return m.ID, nil
}

func (r *memRepo) GetMessagesByConversation(_ context.Context, id string) ([]messaging.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]messaging.Message(nil), r.msgs[id]...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memRepo) MarkMessagesRead(_ context.Context, id string, viewerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	msgs := r.msgs[id]
	for i := range msgs {
		if msgs[i].SenderID != viewerID && !msgs[i].Read {
			msgs[i].Read = true
			n++
		}
	}
	return n, nil
}

func (r *memRepo) CountUnread(_ context.Context, id string, viewerID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.msgs[id] {
		if m.SenderID != viewerID && !m.Read {
			n++
		}
	}
	return n, nil
}

// fakeCache is a map-backed cacheport.Cache; TTLs are ignored.
type fakeCache struct {
	mu      sync.Mutex
	data    map[string]string
	deleted []string
}

var _ cacheport.Cache = (*fakeCache)(nil)

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (c *fakeCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Del(_ context.Context, keys ...string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := c.data[k]; ok {
			delete(c.data, k)
			n++
		}
		c.deleted = append(c.deleted, k)
	}
	return n, nil
}

func (c *fakeCache) Ping(context.Context) error { return nil }
func (c *fakeCache) Close() error               { return nil }
