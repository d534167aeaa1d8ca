// Package media owns local capture for the lifetime of a session.
package media

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNoHandle      = errors.New("no media acquired")
	ErrReleased      = errors.New("media released while acquiring")
	ErrNoScreenShare = errors.New("screen share not active")
)

type Manager struct {
	capturer    core.Capturer
	constraints core.Constraints
	group       singleflight.Group

	mu       sync.Mutex
	gen      uint64
	handle   *Handle
	muted    bool
	videoOff bool
}

func NewManager(capturer core.Capturer, constraints core.Constraints) *Manager {
	return &Manager{capturer: capturer, constraints: constraints}
}

// Acquire returns the current handle, opening devices on first use.
// Concurrent callers share one device request.
func (m *Manager) Acquire(ctx context.Context) (*Handle, error) {
	m.mu.Lock()
	if h := m.handle; h != nil {
		m.mu.Unlock()
		return h, nil
	}
	m.mu.Unlock()

	v, err, _ := m.group.Do("acquire", func() (any, error) {
		m.mu.Lock()
		if h := m.handle; h != nil {
			m.mu.Unlock()
			return h, nil
		}
		gen := m.gen
		m.mu.Unlock()

		tracks, err := m.capturer.Open(ctx, m.constraints)
		if err != nil {
			log.Warn().Err(err).Str("module", "media").Msg("capture failed")
			return nil, &domain.Error{Kind: domain.KindMediaUnavailable, Op: "acquire", Err: err}
		}
		h := newHandleFrom(tracks)

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.gen != gen {
			_ = h.close()
			return nil, &domain.Error{Kind: domain.KindMediaUnavailable, Op: "acquire", Err: ErrReleased}
		}
		m.applyLocked(h)
		m.handle = h
		log.Info().Str("module", "media").Int("tracks", len(tracks)).Msg("media acquired")
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

func newHandleFrom(tracks []core.LocalTrack) *Handle {
	var audio, video core.LocalTrack
	for _, t := range tracks {
		switch t.Kind() {
		case core.TrackAudio:
			if audio == nil {
				audio = t
			}
		case core.TrackVideo:
			if video == nil {
				video = t
			}
		}
	}
	return NewHandle(audio, video)
}

func (m *Manager) applyLocked(h *Handle) {
	if a := h.Audio(); a != nil {
		a.SetEnabled(!m.muted)
	}
	if v := h.Video(); v != nil {
		v.SetEnabled(!m.videoOff)
	}
}

// Handle returns the acquired handle or nil.
func (m *Manager) Handle() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

// Release stops every track and clears the handle along with the mute and
// video-off flags. Safe to call repeatedly; a pending Acquire is discarded.
func (m *Manager) Release() error {
	m.mu.Lock()
	m.gen++
	h := m.handle
	m.handle = nil
	m.muted, m.videoOff = false, false
	m.mu.Unlock()
	if h == nil {
		return nil
	}
	log.Info().Str("module", "media").Msg("media released")
	return h.close()
}

func (m *Manager) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muted = muted
	if m.handle != nil {
		if a := m.handle.Audio(); a != nil {
			a.SetEnabled(!muted)
		}
	}
}

func (m *Manager) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *Manager) SetVideoEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videoOff = !enabled
	if m.handle != nil {
		if v := m.handle.Video(); v != nil {
			v.SetEnabled(enabled)
		}
	}
}

func (m *Manager) VideoEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.videoOff
}

// SubstituteVideoSource replaces the video track in place and returns the
// previous one. Audio is untouched.
func (m *Manager) SubstituteVideoSource(track core.LocalTrack) (core.LocalTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return nil, ErrNoHandle
	}
	track.SetEnabled(!m.videoOff)
	return m.handle.swapVideo(track), nil
}

func (m *Manager) ScreenSharing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil && m.handle.ScreenSharing()
}

// StartScreenShare captures the display and substitutes it for the camera.
func (m *Manager) StartScreenShare(ctx context.Context) (core.LocalTrack, error) {
	if m.Handle() == nil {
		return nil, ErrNoHandle
	}
	track, err := m.capturer.OpenDisplay(ctx)
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindMediaUnavailable, Op: "screen share", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.handle
	if h == nil {
		_ = track.Close()
		return nil, ErrNoHandle
	}
	track.SetEnabled(!m.videoOff)
	h.mu.Lock()
	old := h.screen
	h.screen = track
	h.video = track
	h.mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	log.Info().Str("module", "media").Msg("screen share started")
	return track, nil
}

// StopScreenShare restores the camera and returns it.
func (m *Manager) StopScreenShare() (core.LocalTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.handle
	if h == nil || !h.ScreenSharing() {
		return nil, ErrNoScreenShare
	}
	h.mu.Lock()
	screen := h.screen
	h.screen = nil
	h.video = h.camera
	camera := h.camera
	h.mu.Unlock()
	if camera != nil {
		camera.SetEnabled(!m.videoOff)
	}
	log.Info().Str("module", "media").Msg("screen share stopped")
	return camera, screen.Close()
}
