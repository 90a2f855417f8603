package reporting

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/commands"
	"github.com/rileyhales/tethys/pkg/inventory"
	"github.com/rileyhales/tethys/pkg/lifecycle"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// Console prints command results for people
type Console struct {
	out    io.Writer
	styled bool
}

// NewConsole creates a Console. Styles are applied only when styled is set.
func NewConsole(out io.Writer, styled bool) *Console {
	return &Console{out: out, styled: styled}
}

// Report prints one line per outcome. A silent report omits outcomes that needed no action.
func (c *Console) Report(r lifecycle.Report) {
	if allAlreadyPulled(r) && !r.Silent {
		fmt.Fprintln(c.out, c.render(dimStyle, "Docker images already pulled."))
	}

	for _, o := range r.Outcomes {
		quiet := o.Result == lifecycle.AlreadyInState || o.Result == lifecycle.NotInstalled
		if quiet && r.Silent {
			continue
		}
		if o.Action == lifecycle.ActionPull && o.Result == lifecycle.AlreadyInState {
			continue
		}
		fmt.Fprintln(c.out, c.outcome(o))
	}
}

func (c *Console) outcome(o lifecycle.Outcome) string {
	name := displayName(o.Service)

	if o.Result == lifecycle.Failed {
		return c.render(errorStyle, fmt.Sprintf("%s: %s failed: %v", name, o.Action, o.Err))
	}
	if o.Result == lifecycle.NotInstalled {
		return c.render(warnStyle, name+" container not installed...")
	}

	switch o.Action {
	case lifecycle.ActionPull:
		return c.render(successStyle, fmt.Sprintf("%s: pulled %s", name, o.Image))
	case lifecycle.ActionCreate:
		if o.Result == lifecycle.AlreadyInState {
			return c.render(dimStyle, name+" Docker container already installed: skipping.")
		}
		return c.render(successStyle, name+" Docker container installed.")
	case lifecycle.ActionStart:
		if o.Result == lifecycle.AlreadyInState {
			return c.render(dimStyle, name+" container already running...")
		}
		return c.render(successStyle, "Started "+name+" container.")
	case lifecycle.ActionStop:
		if o.Result == lifecycle.AlreadyInState {
			return c.render(dimStyle, name+" container already stopped.")
		}
		return c.render(successStyle, "Stopped "+name+" container.")
	case lifecycle.ActionRemove:
		return c.render(successStyle, "Removed "+name+" container.")
	}
	return fmt.Sprintf("%s: %s %s", name, o.Action, o.Result)
}

// Status prints the state of each service
func (c *Console) Status(rows []commands.ServiceStatus) {
	for _, row := range rows {
		fmt.Fprintf(c.out, "%s: %s\n", row.DisplayName, c.state(row.State))
	}
}

// IP prints where each running service can be reached
func (c *Console) IP(endpoints []commands.Endpoint) {
	for _, ep := range endpoints {
		switch ep.State {
		case inventory.NotInstalled:
			fmt.Fprintf(c.out, "%s: %s\n", ep.DisplayName, c.render(warnStyle, "Not Installed."))
			continue
		case inventory.Stopped:
			fmt.Fprintf(c.out, "%s: %s\n", ep.DisplayName, c.render(dimStyle, "Not Running."))
			continue
		}

		fmt.Fprintf(c.out, "%s:\n", c.render(boldStyle, ep.DisplayName))
		fmt.Fprintf(c.out, "  Host: %s\n", ep.Host)
		fmt.Fprintf(c.out, "  Port: %d\n", ep.Port)
		if ep.URL != "" {
			fmt.Fprintf(c.out, "  Endpoint: %s\n", ep.URL)
		}
	}
}

// Error prints a styled error line
func (c *Console) Error(err error) {
	fmt.Fprintln(c.out, c.render(errorStyle, "Error: "+err.Error()))
}

func (c *Console) state(s inventory.State) string {
	switch s {
	case inventory.Running:
		return c.render(successStyle, s.String())
	case inventory.Stopped:
		return c.render(warnStyle, s.String())
	default:
		return c.render(dimStyle, s.String())
	}
}

func (c *Console) render(style lipgloss.Style, s string) string {
	if !c.styled {
		return s
	}
	return style.Render(s)
}

func allAlreadyPulled(r lifecycle.Report) bool {
	pulls := 0
	for _, o := range r.Outcomes {
		if o.Action != lifecycle.ActionPull {
			continue
		}
		if o.Result != lifecycle.AlreadyInState {
			return false
		}
		pulls++
	}
	return pulls > 0
}

func displayName(id catalog.ServiceID) string {
	if spec, ok := catalog.Lookup(id); ok {
		return spec.DisplayName
	}
	return string(id)
}
