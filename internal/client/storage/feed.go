package storage

import "sync"

// feed fans changes out to subscribers. Each subscriber gets an unbounded
// mailbox so a slow reader never blocks a writer and no change is dropped.
type feed struct {
	mu   sync.Mutex
	subs map[*mailbox]struct{}
}

func newFeed() *feed {
	return &feed{subs: make(map[*mailbox]struct{})}
}

func (f *feed) subscribe() (<-chan Change, func()) {
	m := newMailbox()

	f.mu.Lock()
	f.subs[m] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, m)
			f.mu.Unlock()
			m.close()
		})
	}
	return m.out, cancel
}

func (f *feed) publish(c Change) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for m := range f.subs {
		m.push(c)
	}
}

func (f *feed) closeAll() {
	f.mu.Lock()
	subs := f.subs
	f.subs = make(map[*mailbox]struct{})
	f.mu.Unlock()
	for m := range subs {
		m.close()
	}
}

type mailbox struct {
	mu    sync.Mutex
	queue []Change
	wake  chan struct{}
	done  chan struct{}
	out   chan Change
	once  sync.Once
}

func newMailbox() *mailbox {
	m := &mailbox{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan Change),
	}
	go m.pump()
	return m
}

func (m *mailbox) push(c Change) {
	m.mu.Lock()
	m.queue = append(m.queue, c)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

func (m *mailbox) close() {
	m.once.Do(func() { close(m.done) })
}

func (m *mailbox) pump() {
	defer close(m.out)
	for {
		select {
		case <-m.done:
			return
		case <-m.wake:
		}

		for {
			m.mu.Lock()
			if len(m.queue) == 0 {
				m.mu.Unlock()
				break
			}
			c := m.queue[0]
			m.queue = m.queue[1:]
			m.mu.Unlock()

			select {
			case m.out <- c:
			case <-m.done:
				return
			}
		}
	}
}
