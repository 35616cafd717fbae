package lockgroup

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Mode is the strength of a lock on a key.
type Mode int

const (
	// Shared locks coexist with other shared locks on the same key.
	Shared Mode = iota

	// Exclusive locks coexist with nothing.
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

var ownerCounter int64

// Owner identifies a lock-holding agent. Tokens are compared by
// pointer; two owners are the same agent only if they are the same
// token.
type Owner struct {
	id int64
}

// NewOwner mints a fresh owner token.
func NewOwner() *Owner {
	return &Owner{
		id: atomic.AddInt64(&ownerCounter, 1),
	}
}

// ID returns the token's numeric identity.
func (o *Owner) ID() int64 {
	return o.id
}

func (o *Owner) String() string {
	return fmt.Sprintf("owner-%d", o.id)
}

// hold records one granted lock on one key.
type hold struct {
	owner   *Owner
	mode    Mode
	granted time.Time
}

func newHold(owner *Owner, mode Mode) *hold {
	return &hold{
		owner:   owner,
		mode:    mode,
		granted: time.Now(),
	}
}

// request is a queued acquisition that could not be granted
// immediately.
type request struct {
	owner *Owner
	mode  Mode
}

func newRequest(owner *Owner, mode Mode) *request {
	return &request{owner: owner, mode: mode}
}
