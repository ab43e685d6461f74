package tui

import "github.com/auracli/aura/internal/domain"

// ChannelObserver adapts domain.SyncObserver to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- domain.SectionProgress
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.SectionProgress) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnProgress sends progress to the channel (non-blocking if full).
// A dropped update is harmless: the view reads progress from catalog.State.
func (o *ChannelObserver) OnProgress(progress domain.SectionProgress) {
	select {
	case o.ch <- progress:
	default:
	}
}
