package logging

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const subscriberBuffer = 64

// Broadcaster is a logrus hook fanning formatted log lines out to subscribers.
// Publishing never blocks: a subscriber that falls behind misses lines.
type Broadcaster struct {
	formatter logrus.Formatter

	mu      sync.Mutex
	subs    map[chan string]struct{}
	backlog []string
	next    int // ring position once backlog is full
	size    int
}

func NewBroadcaster(backlog int) *Broadcaster {
	if backlog < 0 {
		backlog = 0
	}
	return &Broadcaster{
		formatter: &logrus.TextFormatter{DisableColors: true, FullTimestamp: true},
		subs:      make(map[chan string]struct{}),
		backlog:   make([]string, 0, backlog),
		size:      backlog,
	}
}

func (b *Broadcaster) Levels() []logrus.Level { return logrus.AllLevels }

func (b *Broadcaster) Fire(e *logrus.Entry) error {
	line, err := b.formatter.Format(e)
	if err != nil {
		return err
	}
	b.Publish(strings.TrimRight(string(line), "\n"))
	return nil
}

// Publish sends a line to all subscribers and records it in the backlog.
func (b *Broadcaster) Publish(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size > 0 {
		if len(b.backlog) < b.size {
			b.backlog = append(b.backlog, line)
		} else {
			b.backlog[b.next] = line
			b.next = (b.next + 1) % b.size
		}
	}

	for ch := range b.subs {
		select {
		case ch <- line:
		default:
		}
	}
}

// Subscribe returns the current backlog (oldest first), a channel of new lines
// and a function to unsubscribe. The channel is closed by cancel.
func (b *Broadcaster) Subscribe() (backlog []string, lines <-chan string, cancel func()) {
	ch := make(chan string, subscriberBuffer)

	b.mu.Lock()
	backlog = make([]string, 0, len(b.backlog))
	backlog = append(backlog, b.backlog[b.next:]...)
	backlog = append(backlog, b.backlog[:b.next]...)
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return backlog, ch, cancel
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
