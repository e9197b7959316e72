package cleanup

import (
	"errors"
	"io"
	"sync"
)

// Cleaner closes everything added to it in reverse order, so later resources
// that depend on earlier ones go first.
type Cleaner struct {
	mut     sync.Mutex
	toClose []io.Closer
}

type closeFunc func() error

func (f closeFunc) Close() error { return f() }

func (c *Cleaner) Add(addend io.Closer) {
	c.mut.Lock()
	defer c.mut.Unlock()
	c.toClose = append(c.toClose, addend)
}

// AddFunc registers a shutdown function that has no io.Closer of its own.
func (c *Cleaner) AddFunc(f func() error) {
	c.Add(closeFunc(f))
}

func (c *Cleaner) Clean() []error {
	c.mut.Lock()
	defer c.mut.Unlock()
	errs := []error{}
	for i := len(c.toClose) - 1; i >= 0; i-- {
		if err := c.toClose[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.toClose = nil
	return errs
}

func (c *Cleaner) Close() error {
	return errors.Join(c.Clean()...)
}
