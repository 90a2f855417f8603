package prompt

import (
	"os"
	"testing"

	"github.com/rileyhales/tethys/pkg/catalog"
	"github.com/rileyhales/tethys/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlankAnswersKeepDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	require.NoError(t, Answers{}.Apply(cfg, catalog.All()))
	assert.Equal(t, config.DefaultConfig(), cfg)
}

func TestApplyDatabasePasswords(t *testing.T) {
	cfg := config.DefaultConfig()
	a := Answers{SuperPass: Secret{Value: "s3cret", Confirm: "s3cret"}}
	require.NoError(t, a.Apply(cfg, []catalog.ServiceID{catalog.DatabaseGIS}))
	assert.Equal(t, "s3cret", cfg.Database.SuperPassword)
	assert.Equal(t, "pass", cfg.Database.DefaultPassword)

	a = Answers{DefaultPass: Secret{Value: "one", Confirm: "two"}}
	assert.ErrorIs(t, a.Apply(cfg, []catalog.ServiceID{catalog.DatabaseGIS}), config.ErrSecretMismatch)
}

func TestApplyMapServerExplicitLimits(t *testing.T) {
	cfg := config.DefaultConfig()
	a := Answers{
		EnabledNodes:    "3",
		RestNodes:       "",
		FlowControlMode: "e",
		NumCores:        "99",
		MaxOWSGlobal:    "200",
		MaxPerUser:      "4",
	}
	require.NoError(t, a.Apply(cfg, []catalog.ServiceID{catalog.MapServer}))

	ms := cfg.MapServer
	assert.Equal(t, 3, ms.EnabledNodes)
	assert.Equal(t, 1, ms.RestNodes)
	assert.Equal(t, config.FlowControlExplicit, ms.FlowControl.Mode)
	assert.Equal(t, 200, ms.FlowControl.MaxOWSGlobal)
	assert.Equal(t, 8, ms.FlowControl.MaxWMSGetMap)
	assert.Equal(t, 4, ms.FlowControl.MaxPerUser)
	assert.Equal(t, 4, ms.FlowControl.NumCores, "cores answer ignored in explicit mode")
}

func TestApplyMapServerRejectsBadNumbers(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Error(t, Answers{EnabledNodes: "5"}.Apply(cfg, []catalog.ServiceID{catalog.MapServer}))
	assert.Error(t, Answers{NumCores: "many"}.Apply(cfg, []catalog.ServiceID{catalog.MapServer}))
	assert.Error(t, Answers{FlowControlMode: "x"}.Apply(cfg, []catalog.ServiceID{catalog.MapServer}))
}

func TestApplyProcessingContact(t *testing.T) {
	cfg := config.DefaultConfig()
	a := Answers{
		Contact:       config.ContactConfig{Name: "Jane Doe", City: "Provo"},
		AdminUsername: "admin",
		AdminPassword: Secret{Value: "pw", Confirm: "pw"},
	}
	require.NoError(t, a.Apply(cfg, []catalog.ServiceID{catalog.ProcessingService}))

	env := cfg.Environment(catalog.ProcessingService)
	assert.Contains(t, env, "NAME=Jane Doe")
	assert.Contains(t, env, "CITY=Provo")
	assert.Contains(t, env, "POSITION=NONE")
	assert.Contains(t, env, "USERNAME=admin")
	assert.Contains(t, env, "PASSWORD=pw")
}

func TestApplyOnlyTouchesRequestedServices(t *testing.T) {
	cfg := config.DefaultConfig()
	a := Answers{
		SuperPass:     Secret{Value: "x", Confirm: "x"},
		AdminUsername: "admin",
	}
	require.NoError(t, a.Apply(cfg, []catalog.ServiceID{catalog.MapServer}))
	assert.Equal(t, "pass", cfg.Database.SuperPassword)
	assert.Equal(t, "wps", cfg.Processing.AdminUsername)
}

func TestGroups(t *testing.T) {
	p := New(config.DefaultConfig())
	assert.Empty(t, p.Groups(nil))
	assert.Len(t, p.Groups([]catalog.ServiceID{catalog.DatabaseGIS}), 1)
	// cluster page plus one page per flow control mode
	assert.Len(t, p.Groups([]catalog.ServiceID{catalog.MapServer}), 3)
	assert.Len(t, p.Groups(catalog.All()), 5)
}

func TestRunWithNothingToAsk(t *testing.T) {
	assert.NoError(t, New(config.DefaultConfig()).Run(nil))
}

func TestInteractiveOnRegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, Interactive(f))
}
