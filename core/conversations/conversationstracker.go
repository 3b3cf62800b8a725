// Package conversations keeps conversation transcripts in memory.
package conversations

import (
	"sync"
	"time"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
)

// Tracker is an in-memory types.ConversationLog. Conversations idle for
// longer than the expiry are dropped; a zero expiry keeps them forever.
type Tracker struct {
	convMutex       sync.Mutex
	conversations   map[string][]types.Message
	lastMessageTime map[string]time.Time
	expiry          time.Duration
	now             func() time.Time
}

var _ types.ConversationLog = &Tracker{}

func NewTracker(expiry time.Duration) *Tracker {
	return &Tracker{
		expiry:          expiry,
		conversations:   map[string][]types.Message{},
		lastMessageTime: map[string]time.Time{},
		now:             time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (c *Tracker) WithClock(now func() time.Time) *Tracker {
	c.now = now
	return c
}

func (c *Tracker) GetConversation(conversationID string) []types.Message {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	c.expire()

	return append([]types.Message{}, c.conversations[conversationID]...)
}

// expire drops idle conversations. Callers hold the lock.
func (c *Tracker) expire() {
	if c.expiry <= 0 {
		return
	}
	now := c.now()
	for k := range c.conversations {
		last, exists := c.lastMessageTime[k]
		if !exists || last.Add(c.expiry).Before(now) {
			xlog.Debug("Cleaning up conversation", "conversation", k)
			delete(c.conversations, k)
			delete(c.lastMessageTime, k)
		}
	}
}

func (c *Tracker) AddMessage(conversationID, role, content string, meta types.MessageMeta) {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	c.expire()

	now := c.now()
	c.conversations[conversationID] = append(c.conversations[conversationID], types.Message{
		Role:       role,
		Content:    content,
		ToolCalls:  meta.ToolCalls,
		ToolCallID: meta.ToolCallID,
		RunID:      meta.RunID,
		CreatedAt:  now,
	})
	c.lastMessageTime[conversationID] = now
}

func (c *Tracker) SetConversation(conversationID string, messages []types.Message) {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	c.conversations[conversationID] = append([]types.Message{}, messages...)
	c.lastMessageTime[conversationID] = c.now()
}

func (c *Tracker) Reset(conversationID string) {
	c.convMutex.Lock()
	defer c.convMutex.Unlock()

	delete(c.conversations, conversationID)
	delete(c.lastMessageTime, conversationID)
}
