package session

import (
	"sync"

	"github.com/osa030/gigbox/internal/app/dashboard"
	"github.com/osa030/gigbox/internal/app/notification"
)

type captureStream struct {
	mu     sync.Mutex
	states []dashboard.State
}

func (s *captureStream) Send(n *notification.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, n.State)
	return nil
}
