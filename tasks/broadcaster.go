package tasks

import "sync"

// Broadcaster fans values out to any number of subscribers. Every subscriber
// has its own unbounded queue, so a slow reader never blocks Publish or the
// other readers.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[int]*subscriber[T]
	next   int
	closed bool
}

type subscriber[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
	out    chan T
	done   chan struct{}
}

func NewBroadcaster[T any]() *Broadcaster[T] {
	return &Broadcaster[T]{subs: make(map[int]*subscriber[T])}
}

// Subscribe returns a channel receiving every value published from now on.
// The channel is closed after Close once the queue is drained, or right away
// by the returned cancel func.
func (b *Broadcaster[T]) Subscribe() (<-chan T, func()) {
	s := &subscriber[T]{out: make(chan T), done: make(chan struct{})}
	s.cond = sync.NewCond(&s.mu)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(s.out)
		return s.out, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = s
	b.mu.Unlock()

	go s.run()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(s.done)
			s.close()
		})
	}
	return s.out, cancel
}

func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, s := range b.subs {
		s.push(v)
	}
}

// Close ends every subscription. Values already queued are still delivered.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, s := range b.subs {
		s.close()
		delete(b.subs, id)
	}
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	if !s.closed {
		s.queue = append(s.queue, v)
		s.cond.Signal()
	}
	s.mu.Unlock()
}

func (s *subscriber[T]) close() {
	s.mu.Lock()
	s.closed = true
	s.cond.Signal()
	s.mu.Unlock()
}

func (s *subscriber[T]) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		v := s.queue[0]
		var zero T
		s.queue[0] = zero
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- v:
		case <-s.done:
			return
		}
	}
}
