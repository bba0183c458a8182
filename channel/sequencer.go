package channel

import "sync"

// conversationKey identifies one reply thread: a chat plus the message being
// replied to. An empty reply id groups a chat's proactive sends together.
type conversationKey struct {
	chatID  string
	replyTo string
}

// Sequencer issues strictly increasing sequence numbers per conversation,
// starting at 1. Counters are independent between conversations and are kept
// for the process lifetime. Safe for concurrent use.
type Sequencer struct {
	mu   sync.Mutex
	last map[conversationKey]int
}

// NewSequencer creates an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{last: make(map[conversationKey]int)}
}

// Next returns the next sequence number for the (chatID, replyTo)
// conversation. The first call for a conversation returns 1.
func (s *Sequencer) Next(chatID, replyTo string) int {
	key := conversationKey{chatID: chatID, replyTo: replyTo}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[key]++
	return s.last[key]
}
