package sdk

import (
	"github.com/samber/lo"
)

// Clock is the host time a transaction observes. It never moves during one transaction.
type Clock struct {
	Slot          uint64
	UnixTimestamp int64
}

// Env is what the host hands every transaction: who signed and when it runs.
type Env struct {
	TxID    string
	Signers []Address
	Clock   Clock
}

// HasSigner tells if the address signed the outer transaction.
// Example payload: env.HasSigner(owner)
func (e Env) HasSigner(a Address) bool {
	return lo.ContainsBy(e.Signers, func(s Address) bool { return s.Equals(a) })
}
