package access

import "sync"

// WarnedSet remembers users that were already told they are not allowed.
// Create one per process and hand it to NewGuard.
type WarnedSet struct {
	mu  sync.Mutex
	ids map[int64]bool
}

func NewWarnedSet() *WarnedSet {
	return &WarnedSet{ids: make(map[int64]bool)}
}

// Add marks id and reports whether it was new.
func (s *WarnedSet) Add(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return false
	}
	s.ids[id] = true
	return true
}

func (s *WarnedSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ids)
}

// Guard is the user allowlist. An empty allowlist lets everyone through.
type Guard struct {
	allowed map[int64]bool
	warned  *WarnedSet
}

func NewGuard(allowedUserIDs []int64, warned *WarnedSet) *Guard {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	if warned == nil {
		warned = NewWarnedSet()
	}
	return &Guard{allowed: allowed, warned: warned}
}

// Open reports whether no allowlist is configured.
func (g *Guard) Open() bool {
	return len(g.allowed) == 0
}

// Allowed reports whether userID may use the bot. userID 0 means the sender
// is unknown.
func (g *Guard) Allowed(userID int64) bool {
	if g.Open() {
		return true
	}
	return userID != 0 && g.allowed[userID]
}

// ShouldNotifyDenied reports whether a denied user should get the one-time
// access denied notice.
func (g *Guard) ShouldNotifyDenied(userID int64) bool {
	if userID == 0 || g.Allowed(userID) {
		return false
	}
	return g.warned.Add(userID)
}

// DeniedCount returns how many distinct users were told they are not allowed.
func (g *Guard) DeniedCount() int {
	return g.warned.Len()
}
