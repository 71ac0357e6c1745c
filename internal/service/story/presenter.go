// Package story drives the auto-advancing card sequence of the wrapped experience.
package story

import (
	"errors"
	"sync"
	"time"
)

// DefaultInterval is the auto-advance delay per card.
const DefaultInterval = 5 * time.Second

// ErrOutOfRange is returned when jumping outside the card sequence.
var ErrOutOfRange = errors.New("card index out of range")

// ChangeFunc is called after the current index changes.
type ChangeFunc func(index int, card Card)

// Presenter serialises manual navigation and timer-driven advances through a
// single current index. Each index change cancels the pending timer and
// schedules a fresh one, so advances never stack.
type Presenter struct {
	mu        sync.Mutex
	cards     []Card
	index     int
	interval  time.Duration
	scheduler Scheduler
	timer     Timer
	gen       uint64
	closed    bool
	onChange  ChangeFunc
}

// NewPresenter starts presenting cards from index 0 and arms the first timer.
func NewPresenter(cards []Card, interval time.Duration, scheduler Scheduler, onChange ChangeFunc) *Presenter {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if scheduler == nil {
		scheduler = Clock
	}
	p := &Presenter{
		cards:     append([]Card(nil), cards...),
		interval:  interval,
		scheduler: scheduler,
		onChange:  onChange,
	}
	p.mu.Lock()
	p.rescheduleLocked()
	p.mu.Unlock()
	return p
}

// Len returns the number of cards.
func (p *Presenter) Len() int {
	return len(p.cards)
}

// Index returns the current card index.
func (p *Presenter) Index() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.index
}

// Current returns the card at the current index.
func (p *Presenter) Current() (Card, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.cards) == 0 {
		return Card{}, false
	}
	return p.cards[p.index], true
}

// Next moves one card forward. It reports false at the last card.
func (p *Presenter) Next() bool {
	p.mu.Lock()
	if p.closed || p.index >= len(p.cards)-1 {
		p.mu.Unlock()
		return false
	}
	notify := p.setIndexLocked(p.index + 1)
	p.mu.Unlock()
	notify()
	return true
}

// Prev moves one card back. It reports false at the first card.
func (p *Presenter) Prev() bool {
	p.mu.Lock()
	if p.closed || p.index == 0 {
		p.mu.Unlock()
		return false
	}
	notify := p.setIndexLocked(p.index - 1)
	p.mu.Unlock()
	notify()
	return true
}

// JumpTo moves to index. Jumping to the current index changes nothing and
// leaves the pending timer in place.
func (p *Presenter) JumpTo(index int) error {
	p.mu.Lock()
	if index < 0 || index >= len(p.cards) {
		p.mu.Unlock()
		return ErrOutOfRange
	}
	if p.closed || index == p.index {
		p.mu.Unlock()
		return nil
	}
	notify := p.setIndexLocked(index)
	p.mu.Unlock()
	notify()
	return nil
}

// Close cancels the pending timer. Callbacks firing afterwards are ignored.
func (p *Presenter) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *Presenter) setIndexLocked(index int) func() {
	p.index = index
	p.rescheduleLocked()

	card := p.cards[index]
	onChange := p.onChange
	return func() {
		if onChange != nil {
			onChange(index, card)
		}
	}
}

func (p *Presenter) rescheduleLocked() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen++
	if p.closed || p.index >= len(p.cards)-1 {
		return
	}

	gen := p.gen
	p.timer = p.scheduler.AfterFunc(p.interval, func() { p.fire(gen) })
}

func (p *Presenter) fire(gen uint64) {
	p.mu.Lock()
	if p.closed || gen != p.gen || p.index >= len(p.cards)-1 {
		p.mu.Unlock()
		return
	}
	notify := p.setIndexLocked(p.index + 1)
	p.mu.Unlock()
	notify()
}
