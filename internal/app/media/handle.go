package media

import (
	"errors"
	"sync"

	"github.com/dkeye/peercall/internal/core"
)

// Handle is the local stream lent to a session. The manager owns it; callers
// must not close its tracks.
type Handle struct {
	mu     sync.RWMutex
	audio  core.LocalTrack
	video  core.LocalTrack
	camera core.LocalTrack
	screen core.LocalTrack
}

func NewHandle(audio, video core.LocalTrack) *Handle {
	return &Handle{audio: audio, video: video, camera: video}
}

func (h *Handle) Audio() core.LocalTrack {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.audio
}

// Video returns the track currently sent as video, camera or screen.
func (h *Handle) Video() core.LocalTrack {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.video
}

func (h *Handle) Tracks() []core.LocalTrack {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]core.LocalTrack, 0, 2)
	if h.audio != nil {
		out = append(out, h.audio)
	}
	if h.video != nil {
		out = append(out, h.video)
	}
	return out
}

func (h *Handle) ScreenSharing() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.screen != nil
}

func (h *Handle) swapVideo(track core.LocalTrack) core.LocalTrack {
	h.mu.Lock()
	defer h.mu.Unlock()
	prev := h.video
	h.video = track
	return prev
}

func (h *Handle) close() error {
	h.mu.Lock()
	tracks := []core.LocalTrack{h.audio, h.camera, h.screen}
	h.audio, h.video, h.camera, h.screen = nil, nil, nil, nil
	h.mu.Unlock()

	var errs []error
	for _, t := range tracks {
		if t == nil {
			continue
		}
		if err := t.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
