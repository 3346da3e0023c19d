// Package refcount implements the shared object protocol used by hash keys,
// marker interval sets, and hash tables. Ownership between the three types is
// a strict DAG (table -> key -> interval set), so a plain count with a typed
// finalizer is sufficient; there is no cycle collection.
package refcount

// Object is implemented by every refcounted type in this module.
type Object interface {
	IncRef()
	DecRef()
	RefCount() int
}

// Counted is embedded by refcounted types. Init must be called before use;
// the zero value has a count of zero and no finalizer.
type Counted struct {
	refs     int
	finalize func()
}

// Init sets the count to one and installs the finalizer run when the count
// returns to zero. finalize may be nil.
func (c *Counted) Init(finalize func()) {
	c.refs = 1
	c.finalize = finalize
}

// IncRef adds a reference.
func (c *Counted) IncRef() {
	c.refs++
}

// DecRef drops a reference, running the finalizer when the last one is
// released. Dropping below zero is a caller bug; the count is left negative
// and the finalizer does not run twice.
func (c *Counted) DecRef() {
	c.refs--
	if c.refs == 0 && c.finalize != nil {
		c.finalize()
	}
}

// RefCount returns the current count.
func (c *Counted) RefCount() int {
	return c.refs
}
