package reporting

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/pkg/jsonmessage"
)

// OutputFormat represents the pull progress output format
type OutputFormat string

const (
	// FormatText rewrites the current line while a layer keeps reporting
	FormatText OutputFormat = "text"
	// FormatPlain prints every event on its own line
	FormatPlain OutputFormat = "plain"
	// FormatJSON re-emits each event as one JSON object per line
	FormatJSON OutputFormat = "json"
)

// PullProgress renders image pull event streams
type PullProgress struct {
	out    io.Writer
	format OutputFormat
}

// NewPullProgress creates a pull progress reporter writing to out
func NewPullProgress(out io.Writer, format OutputFormat) *PullProgress {
	return &PullProgress{out: out, format: format}
}

// pullEvent is the JSON form of one rendered event
type pullEvent struct {
	Image    string `json:"image"`
	ID       string `json:"id,omitempty"`
	Status   string `json:"status"`
	Progress string `json:"progress,omitempty"`
}

// Render consumes stream until it ends. An error event in the stream ends the
// rendering and is returned.
func (p *PullProgress) Render(image string, stream io.Reader) error {
	dec := json.NewDecoder(stream)
	line := &lineState{out: p.out}

	for {
		var msg jsonmessage.JSONMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			line.finish()
			return fmt.Errorf("failed to decode pull stream: %w", err)
		}

		if msg.Error != nil {
			line.finish()
			return msg.Error
		}
		if msg.ErrorMessage != "" {
			line.finish()
			return errors.New(msg.ErrorMessage)
		}

		switch p.format {
		case FormatJSON:
			data, err := json.Marshal(pullEvent{
				Image:    image,
				ID:       msg.ID,
				Status:   msg.Status,
				Progress: progressText(msg),
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(p.out, string(data))
		case FormatPlain:
			fmt.Fprintln(p.out, eventText(msg))
		default:
			line.write(msg.ID, eventText(msg))
		}
	}

	line.finish()
	return nil
}

// lineState remembers the last rendered event so a repeated id overwrites its line
type lineState struct {
	out    io.Writer
	prevID string
	prev   string
	wrote  bool
}

func (s *lineState) write(id, text string) {
	switch {
	case id != "" && id == s.prevID:
		n := len(s.prev)
		fmt.Fprint(s.out, strings.Repeat("\b", n)+strings.Repeat(" ", n)+strings.Repeat("\b", n)+text)
	case s.wrote:
		fmt.Fprint(s.out, "\n"+text)
	default:
		fmt.Fprint(s.out, text)
	}
	s.prevID = id
	s.prev = text
	s.wrote = true
}

func (s *lineState) finish() {
	if s.wrote {
		fmt.Fprintln(s.out)
		s.wrote = false
	}
}

func eventText(msg jsonmessage.JSONMessage) string {
	if msg.ID == "" {
		return msg.Status
	}
	text := msg.ID + ": " + msg.Status
	if msg.Status == "Downloading" || msg.Status == "Extracting" {
		if progress := progressText(msg); progress != "" {
			text += " " + progress
		}
	}
	return text
}

func progressText(msg jsonmessage.JSONMessage) string {
	if msg.ProgressMessage != "" {
		return msg.ProgressMessage
	}
	if msg.Progress != nil {
		return msg.Progress.String()
	}
	return ""
}
