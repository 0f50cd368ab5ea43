package ecs

// cell holds one entity's component value and tracks outstanding borrows.
// Every borrow is stamped with a token from next; a handle is only honored
// while its token is still recorded here. readers and writer are mutually
// exclusive.
type cell[T any] struct {
	value   T
	next    uint64
	writer  uint64   // token of the exclusive borrow, 0 when none
	readers []uint64 // tokens of shared borrows
}

func (c *cell[T]) busy() bool { return c.writer != 0 || len(c.readers) > 0 }

func (c *cell[T]) held() string {
	switch {
	case c.writer != 0:
		return "a write borrow is outstanding"
	case len(c.readers) > 0:
		return "read borrows are outstanding"
	default:
		return "no borrow is outstanding"
	}
}

func (c *cell[T]) token() uint64 {
	c.next++
	return c.next
}

func (c *cell[T]) borrow(s *Store[T], e Entity) uint64 {
	if c.writer != 0 {
		panic(s.conflict(e, "read borrow", c))
	}
	tok := c.token()
	c.readers = append(c.readers, tok)
	return tok
}

func (c *cell[T]) borrowMut(s *Store[T], e Entity) uint64 {
	if c.busy() {
		panic(s.conflict(e, "write borrow", c))
	}
	c.writer = c.token()
	return c.writer
}

func (c *cell[T]) reading(tok uint64) bool { return c.readerAt(tok) >= 0 }

func (c *cell[T]) writing(tok uint64) bool { return tok != 0 && c.writer == tok }

func (c *cell[T]) readerAt(tok uint64) int {
	if tok == 0 {
		return -1
	}
	for i, t := range c.readers {
		if t == tok {
			return i
		}
	}
	return -1
}

func (c *cell[T]) unborrow(s *Store[T], e Entity, tok uint64) {
	i := c.readerAt(tok)
	if i < 0 {
		panic(s.conflict(e, "read release", c))
	}
	last := len(c.readers) - 1
	c.readers[i] = c.readers[last]
	c.readers = c.readers[:last]
}

func (c *cell[T]) unborrowMut(s *Store[T], e Entity, tok uint64) {
	if !c.writing(tok) {
		panic(s.conflict(e, "write release", c))
	}
	c.writer = 0
}
