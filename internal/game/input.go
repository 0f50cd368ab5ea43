package game

// Command asks the named player to move one tile.
type Command struct {
	Player string
	DX, DY int
}

// InputQueue buffers commands by the step they apply to.
type InputQueue struct {
	pending map[uint64][]Command
}

func NewInputQueue() *InputQueue {
	return &InputQueue{pending: make(map[uint64][]Command)}
}

func (q *InputQueue) Push(step uint64, cmd Command) {
	q.pending[step] = append(q.pending[step], cmd)
}

// Drain removes and returns the commands for step, in push order.
func (q *InputQueue) Drain(step uint64) []Command {
	cmds := q.pending[step]
	delete(q.pending, step)
	return cmds
}

func (q *InputQueue) Len() int {
	n := 0
	for _, cmds := range q.pending {
		n += len(cmds)
	}
	return n
}

// LastStep is the highest step with queued input, or 0.
func (q *InputQueue) LastStep() uint64 {
	var last uint64
	for s := range q.pending {
		last = max(last, s)
	}
	return last
}
