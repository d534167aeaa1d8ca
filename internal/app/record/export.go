package record

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
	"github.com/pion/webrtc/v4/pkg/media"
	"github.com/pion/webrtc/v4/pkg/media/ivfwriter"
	"github.com/pion/webrtc/v4/pkg/media/oggwriter"
	"github.com/rs/zerolog/log"
)

// Export writes each Opus track to an .ogg file and each VP8 track to an .ivf
// file under dir. Tracks in other codecs are skipped. It returns the written paths.
func Export(art *Artifact, dir string) ([]string, error) {
	h, chunks, err := Decode(art.Data)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}

	writers := make(map[string]media.Writer, len(h.Tracks))
	var paths []string
	defer func() {
		for id, w := range writers {
			if err := w.Close(); err != nil {
				log.Warn().Err(err).Str("module", "record").Str("track", id).Msg("close writer")
			}
		}
	}()

	for i, t := range h.Tracks {
		side := "remote"
		if t.Local {
			side = "local"
		}
		base := filepath.Join(dir, fmt.Sprintf("%02d-%s-%s", i, side, t.Kind))
		var (
			w    media.Writer
			path string
		)
		switch {
		case strings.EqualFold(t.MimeType, webrtc.MimeTypeOpus):
			path = base + ".ogg"
			w, err = oggwriter.New(path, 48000, 2)
		case strings.EqualFold(t.MimeType, webrtc.MimeTypeVP8):
			path = base + ".ivf"
			w, err = ivfwriter.New(path)
		default:
			log.Info().Str("module", "record").Str("track", t.ID).Str("mime", t.MimeType).Msg("export skipped, unsupported codec")
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}
		writers[t.ID] = w
		paths = append(paths, path)
	}

	for _, c := range chunks {
		w, ok := writers[c.Track]
		if !ok {
			continue
		}
		var pkt rtp.Packet
		if err := pkt.Unmarshal(c.Packet); err != nil {
			return nil, fmt.Errorf("chunk of %s: %w", c.Track, err)
		}
		if err := w.WriteRTP(&pkt); err != nil {
			return nil, fmt.Errorf("write %s: %w", c.Track, err)
		}
	}
	return paths, nil
}
