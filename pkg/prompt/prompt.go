// Package prompt asks for the per-service settings that containers are created with.
package prompt

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/config"
)

// Interactive reports whether f is a terminal a form can run on
func Interactive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Secret is a value typed twice
type Secret struct {
	Value   string
	Confirm string
}

// Answers holds the raw text of every field. Blank fields keep the configured value.
type Answers struct {
	DefaultPass   Secret
	DBManagerPass Secret
	SuperPass     Secret

	EnabledNodes    string
	RestNodes       string
	FlowControlMode string
	NumCores        string
	MaxOWSGlobal    string
	MaxWMSGetMap    string
	MaxOWSGWC       string
	MaxPerUser      string

	Contact       config.ContactConfig
	AdminUsername string
	AdminPassword Secret
}

// Prompter fills a Config through terminal forms
type Prompter struct {
	cfg        *config.Config
	answers    Answers
	accessible bool
}

// New creates a Prompter that writes into cfg
func New(cfg *config.Config) *Prompter {
	return &Prompter{
		cfg:     cfg,
		answers: Answers{FlowControlMode: cfg.MapServer.FlowControl.Mode},
	}
}

// Accessible switches the form to line-by-line prompts for screen readers
func (p *Prompter) Accessible(on bool) *Prompter {
	p.accessible = on
	return p
}

// Run asks about the given services and applies the answers.
// Services without settings are skipped; nil is returned if nothing needs asking.
func (p *Prompter) Run(ids []catalog.ServiceID) error {
	groups := p.Groups(ids)
	if len(groups) == 0 {
		return nil
	}

	form := huh.NewForm(groups...).WithAccessible(p.accessible)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return fmt.Errorf("setup cancelled")
		}
		return err
	}
	return p.answers.Apply(p.cfg, ids)
}

// Groups builds the form pages for the given services
func (p *Prompter) Groups(ids []catalog.ServiceID) []*huh.Group {
	var groups []*huh.Group
	a := &p.answers
	cfg := p.cfg

	for _, id := range catalog.Normalize(ids) {
		switch id {
		case catalog.DatabaseGIS:
			db := cfg.Database
			fields := []huh.Field{
				huh.NewNote().Title("PostGIS/Database").Description("Press enter to accept the values in brackets."),
			}
			fields = append(fields, secretFields(`"tethys_default" database user`, db.DefaultPassword, &a.DefaultPass)...)
			fields = append(fields, secretFields(`"tethys_db_manager" database user`, db.DBManagerPassword, &a.DBManagerPass)...)
			fields = append(fields, secretFields(`"tethys_super" database user`, db.SuperPassword, &a.SuperPass)...)
			groups = append(groups, huh.NewGroup(fields...))

		case catalog.MapServer:
			if !config.Clustered(catalog.MustLookup(id).Image) {
				continue
			}
			ms := cfg.MapServer
			fc := ms.FlowControl
			groups = append(groups,
				huh.NewGroup(
					huh.NewNote().
						Title("GeoServer").
						Description("GeoServer can run in clustered mode for better performance, and can apply flow control limits so it is not overwhelmed by simultaneous requests."),
					numberField("Number of GeoServer Instances Enabled", ms.EnabledNodes, 4, &a.EnabledNodes),
					numberField("Number of GeoServer Instances with REST API Enabled", ms.RestNodes, 4, &a.RestNodes),
					huh.NewSelect[string]().
						Title("Flow control limits").
						Options(
							huh.NewOption("Derive from number of processors (c)", config.FlowControlCores),
							huh.NewOption("Set limits explicitly (e)", config.FlowControlExplicit),
						).
						Value(&a.FlowControlMode),
				),
				huh.NewGroup(
					numberField("Number of Processors", fc.NumCores, 0, &a.NumCores),
				).WithHideFunc(func() bool { return a.FlowControlMode != config.FlowControlCores }),
				huh.NewGroup(
					numberField("Maximum Number of Simultaneous OWS Requests", fc.MaxOWSGlobal, 0, &a.MaxOWSGlobal),
					numberField("Maximum Number of Simultaneous GetMap Requests", fc.MaxWMSGetMap, 0, &a.MaxWMSGetMap),
					numberField("Maximum Number of Simultaneous GeoWebCache Tile Renders", fc.MaxOWSGWC, 0, &a.MaxOWSGWC),
					numberField("Maximum Number of Requests per User", fc.MaxPerUser, 0, &a.MaxPerUser),
				).WithHideFunc(func() bool { return a.FlowControlMode != config.FlowControlExplicit }),
			)

		case catalog.ProcessingService:
			ct := cfg.Processing.Contact
			fields := []huh.Field{
				huh.NewNote().Title("52 North WPS").Description("Contact information for the Web Processing Service."),
				textField("Name", ct.Name, &a.Contact.Name),
				textField("Position", ct.Position, &a.Contact.Position),
				textField("Address", ct.Address, &a.Contact.Address),
				textField("City", ct.City, &a.Contact.City),
				textField("State", ct.State, &a.Contact.State),
				textField("Country", ct.Country, &a.Contact.Country),
				textField("Postal Code", ct.PostalCode, &a.Contact.PostalCode),
				textField("Email", ct.Email, &a.Contact.Email),
				textField("Phone", ct.Phone, &a.Contact.Phone),
				textField("Fax", ct.Fax, &a.Contact.Fax),
				textField("Admin Username", cfg.Processing.AdminUsername, &a.AdminUsername),
			}
			fields = append(fields, secretFields("Admin", cfg.Processing.AdminPassword, &a.AdminPassword)...)
			groups = append(groups, huh.NewGroup(fields...))
		}
	}
	return groups
}

// Apply parses the answers for the given services into cfg. Blank answers keep the
// value already in cfg.
func (a Answers) Apply(cfg *config.Config, ids []catalog.ServiceID) error {
	for _, id := range catalog.Normalize(ids) {
		switch id {
		case catalog.DatabaseGIS:
			db := &cfg.Database
			for _, s := range []struct {
				secret Secret
				dst    *string
			}{
				{a.DefaultPass, &db.DefaultPassword},
				{a.DBManagerPass, &db.DBManagerPassword},
				{a.SuperPass, &db.SuperPassword},
			} {
				v, err := config.ConfirmSecret(s.secret.Value, s.secret.Confirm, *s.dst)
				if err != nil {
					return fmt.Errorf("database password: %w", err)
				}
				*s.dst = v
			}

		case catalog.MapServer:
			if !config.Clustered(catalog.MustLookup(id).Image) {
				continue
			}
			ms := &cfg.MapServer
			fc := &ms.FlowControl
			mode := fc.Mode
			if a.FlowControlMode != "" {
				m, err := config.ParseFlowControlMode(a.FlowControlMode)
				if err != nil {
					return err
				}
				mode = m
			}
			fc.Mode = mode

			numbers := []numberAnswer{
				{a.EnabledNodes, 4, &ms.EnabledNodes},
				{a.RestNodes, 4, &ms.RestNodes},
			}
			if mode == config.FlowControlCores {
				numbers = append(numbers, numberAnswer{a.NumCores, 0, &fc.NumCores})
			} else {
				numbers = append(numbers,
					numberAnswer{a.MaxOWSGlobal, 0, &fc.MaxOWSGlobal},
					numberAnswer{a.MaxWMSGetMap, 0, &fc.MaxWMSGetMap},
					numberAnswer{a.MaxOWSGWC, 0, &fc.MaxOWSGWC},
					numberAnswer{a.MaxPerUser, 0, &fc.MaxPerUser},
				)
			}
			for _, n := range numbers {
				r := config.ParseNumeric(n.raw, *n.dst, n.max)
				if !r.Valid() {
					return fmt.Errorf("%q: %s", n.raw, r.Problem)
				}
				*n.dst = r.Value
			}

		case catalog.ProcessingService:
			pc := &cfg.Processing
			ct := &pc.Contact
			for _, f := range []struct {
				raw string
				dst *string
			}{
				{a.Contact.Name, &ct.Name},
				{a.Contact.Position, &ct.Position},
				{a.Contact.Address, &ct.Address},
				{a.Contact.City, &ct.City},
				{a.Contact.State, &ct.State},
				{a.Contact.Country, &ct.Country},
				{a.Contact.PostalCode, &ct.PostalCode},
				{a.Contact.Email, &ct.Email},
				{a.Contact.Phone, &ct.Phone},
				{a.Contact.Fax, &ct.Fax},
				{a.AdminUsername, &pc.AdminUsername},
			} {
				*f.dst = config.DefaultIfBlank(f.raw, *f.dst)
			}
			v, err := config.ConfirmSecret(a.AdminPassword.Value, a.AdminPassword.Confirm, pc.AdminPassword)
			if err != nil {
				return fmt.Errorf("admin password: %w", err)
			}
			pc.AdminPassword = v
		}
	}
	return nil
}

type numberAnswer struct {
	raw string
	max int
	dst *int
}

func textField(title, def string, dst *string) *huh.Input {
	return huh.NewInput().
		Title(fmt.Sprintf("%s [%s]", title, def)).
		Placeholder(def).
		Value(dst)
}

func numberField(title string, def, max int, dst *string) *huh.Input {
	label := fmt.Sprintf("%s [%d]", title, def)
	if max > 0 {
		label = fmt.Sprintf("%s (max %d) [%d]", title, max, def)
	}
	return huh.NewInput().
		Title(label).
		Placeholder(strconv.Itoa(def)).
		Value(dst).
		Validate(func(s string) error {
			if r := config.ParseNumeric(s, def, max); !r.Valid() {
				return errors.New(r.Problem)
			}
			return nil
		})
}

func secretFields(who, def string, dst *Secret) []huh.Field {
	return []huh.Field{
		huh.NewInput().
			Title(fmt.Sprintf("Password for %s [%s]", who, mask(def))).
			EchoMode(huh.EchoModePassword).
			Value(&dst.Value),
		huh.NewInput().
			Title(fmt.Sprintf("Confirm password for %s", who)).
			Description("Leave blank when keeping the current password.").
			EchoMode(huh.EchoModePassword).
			Value(&dst.Confirm).
			Validate(func(s string) error {
				_, err := config.ConfirmSecret(dst.Value, s, def)
				return err
			}),
	}
}

// mask hides configured secrets but shows the well-known default
func mask(secret string) string {
	if secret == "pass" || secret == "wps" {
		return secret
	}
	return "********"
}
