package businessflow

import "sync"

// phoneLocks serializes submissions per phone number so the guard queries and
// the subsequent insert/update of one operation cannot interleave with a
// concurrent submission for the same participant.
type phoneLocks struct {
	mu sync.Map // phone number -> *sync.Mutex
}

func newPhoneLocks() *phoneLocks {
	return &phoneLocks{}
}

func (l *phoneLocks) lock(phoneNumber string) func() {
	v, _ := l.mu.LoadOrStore(phoneNumber, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
