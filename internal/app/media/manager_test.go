package media

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/core/mocks"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func track(ctrl *gomock.Controller, kind core.TrackKind) *mocks.MockLocalTrack {
	t := mocks.NewMockLocalTrack(ctrl)
	t.EXPECT().Kind().Return(kind).AnyTimes()
	t.EXPECT().SetEnabled(gomock.Any()).AnyTimes()
	return t
}

func TestAcquireIsIdempotent(t *testing.T) {
	ctrl := gomock.NewController(t)
	capt := mocks.NewMockCapturer(ctrl)
	audio, video := track(ctrl, core.TrackAudio), track(ctrl, core.TrackVideo)

	release := make(chan struct{})
	capt.EXPECT().Open(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.Constraints) ([]core.LocalTrack, error) {
			<-release
			return []core.LocalTrack{audio, video}, nil
		}).Times(1)

	m := NewManager(capt, core.Constraints{Audio: true, Video: true})

	var wg sync.WaitGroup
	handles := make(chan *Handle, 3)
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := m.Acquire(context.Background())
			if err == nil {
				handles <- h
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(handles)

	var first *Handle
	for h := range handles {
		if first == nil {
			first = h
		}
		require.Same(t, first, h)
	}
	require.NotNil(t, first)

	again, err := m.Acquire(context.Background())
	require.NoError(t, err)
	require.Same(t, first, again)
	require.Equal(t, audio, again.Audio())
	require.Equal(t, video, again.Video())
}

func TestAcquireFailureIsMediaUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	capt := mocks.NewMockCapturer(ctrl)
	capt.EXPECT().Open(gomock.Any(), gomock.Any()).Return(nil, errors.New("permission denied"))

	m := NewManager(capt, core.Constraints{Audio: true})
	_, err := m.Acquire(context.Background())
	require.ErrorIs(t, err, domain.ErrMediaUnavailable)
	require.Nil(t, m.Handle())
}

func TestReleaseStopsEveryTrack(t *testing.T) {
	ctrl := gomock.NewController(t)
	capt := mocks.NewMockCapturer(ctrl)
	audio, video := track(ctrl, core.TrackAudio), track(ctrl, core.TrackVideo)
	audio.EXPECT().Close().Return(nil).Times(1)
	video.EXPECT().Close().Return(nil).Times(1)
	capt.EXPECT().Open(gomock.Any(), gomock.Any()).Return([]core.LocalTrack{audio, video}, nil)

	m := NewManager(capt, core.Constraints{Audio: true, Video: true})
	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	require.NoError(t, m.Release())
	require.NoError(t, m.Release())
	require.Nil(t, m.Handle())
}

func TestMuteAndVideoToggleApplyToTracks(t *testing.T) {
	ctrl := gomock.NewController(t)
	capt := mocks.NewMockCapturer(ctrl)
	audio := mocks.NewMockLocalTrack(ctrl)
	video := mocks.NewMockLocalTrack(ctrl)
	audio.EXPECT().Kind().Return(core.TrackAudio).AnyTimes()
	video.EXPECT().Kind().Return(core.TrackVideo).AnyTimes()
	capt.EXPECT().Open(gomock.Any(), gomock.Any()).Return([]core.LocalTrack{audio, video}, nil)

	m := NewManager(capt, core.Constraints{Audio: true, Video: true})
	// preference set before capture is applied on acquire
	m.SetMuted(true)
	audio.EXPECT().SetEnabled(false)
	video.EXPECT().SetEnabled(true)
	_, err := m.Acquire(context.Background())
	require.NoError(t, err)

	audio.EXPECT().SetEnabled(true)
	m.SetMuted(false)
	require.False(t, m.Muted())

	video.EXPECT().SetEnabled(false)
	m.SetVideoEnabled(false)
	require.False(t, m.VideoEnabled())
}

func TestReleaseClearsMuteAndVideoOff(t *testing.T) {
	ctrl := gomock.NewController(t)
	capt := mocks.NewMockCapturer(ctrl)
	audio, video := track(ctrl, core.TrackAudio), track(ctrl, core.TrackVideo)
	audio.EXPECT().Close().Return(nil)
	video.EXPECT().Close().Return(nil)

	nextAudio := mocks.NewMockLocalTrack(ctrl)
	nextVideo := mocks.NewMockLocalTrack(ctrl)
	nextAudio.EXPECT().Kind().Return(core.TrackAudio).AnyTimes()
	nextVideo.EXPECT().Kind().Return(core.TrackVideo).AnyTimes()
	nextAudio.EXPECT().SetEnabled(true)
	nextVideo.EXPECT().SetEnabled(true)

	gomock.InOrder(
		capt.EXPECT().Open(gomock.Any(), gomock.Any()).Return([]core.LocalTrack{audio, video}, nil),
		capt.EXPECT().Open(gomock.Any(), gomock.Any()).Return([]core.LocalTrack{nextAudio, nextVideo}, nil),
	)

	m := NewManager(capt, core.Constraints{Audio: true, Video: true})
	_, err := m.Acquire(context.Background())
	require.NoError(t, err)
	m.SetMuted(true)
	m.SetVideoEnabled(false)

	require.NoError(t, m.Release())
	require.False(t, m.Muted())
	require.True(t, m.VideoEnabled())

	// the next call starts unmuted with video on
	_, err = m.Acquire(context.Background())
	require.NoError(t, err)
}

func TestScreenShareSubstitutesVideoOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	capt := mocks.NewMockCapturer(ctrl)
	audio, camera, screen := track(ctrl, core.TrackAudio), track(ctrl, core.TrackVideo), track(ctrl, core.TrackVideo)
	capt.EXPECT().Open(gomock.Any(), gomock.Any()).Return([]core.LocalTrack{audio, camera}, nil)
	capt.EXPECT().OpenDisplay(gomock.Any()).Return(screen, nil)

	m := NewManager(capt, core.Constraints{Audio: true, Video: true})
	h, err := m.Acquire(context.Background())
	require.NoError(t, err)

	got, err := m.StartScreenShare(context.Background())
	require.NoError(t, err)
	require.Equal(t, screen, got)
	require.Equal(t, core.LocalTrack(screen), h.Video())
	require.Equal(t, core.LocalTrack(audio), h.Audio())
	require.True(t, m.ScreenSharing())

	screen.EXPECT().Close().Return(nil)
	restored, err := m.StopScreenShare()
	require.NoError(t, err)
	require.Equal(t, core.LocalTrack(camera), restored)
	require.Equal(t, core.LocalTrack(camera), h.Video())
	require.False(t, m.ScreenSharing())

	_, err = m.StopScreenShare()
	require.ErrorIs(t, err, ErrNoScreenShare)
}

func TestSubstituteWithoutHandle(t *testing.T) {
	ctrl := gomock.NewController(t)
	m := NewManager(mocks.NewMockCapturer(ctrl), core.Constraints{})
	_, err := m.SubstituteVideoSource(track(ctrl, core.TrackVideo))
	require.ErrorIs(t, err, ErrNoHandle)
}
