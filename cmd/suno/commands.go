package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"

	"github.com/keshon/suno/internal/app"
	"github.com/keshon/suno/internal/chat"
	"github.com/keshon/suno/internal/config"
	"github.com/keshon/suno/internal/console"
	"github.com/keshon/suno/internal/discord"
	"github.com/keshon/suno/internal/membership"
	"github.com/keshon/suno/internal/module"
	"github.com/keshon/suno/internal/modules/example"
	"github.com/keshon/suno/internal/modules/moderation"
	"github.com/keshon/suno/internal/modules/trust"
	"github.com/keshon/suno/internal/roles"
)

// factories lists the loaded modules in registration order.
var factories = []app.Factory{
	moderation.New,
	trust.New,
	example.New,
}

func loadConfig(dev bool) (*config.Config, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	if dev {
		cfg.Dev = true
	}
	if cfg.Dev {
		logrus.SetLevel(logrus.DebugLevel)
	}
	return cfg, nil
}

// start wires the app around platform and loads every module.
func start(cfg *config.Config, platform chat.Platform, reg chat.RoleRegistry) (*app.App, error) {
	store, err := membership.Open(cfg, logrus.WithField("component", "membership"))
	if err != nil {
		return nil, err
	}
	a, err := app.New(cfg, platform, reg, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := a.Load(factories...); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func failure(err error) subcommands.ExitStatus {
	var ierr *module.IntegrityError
	if errors.As(err, &ierr) {
		logrus.WithField("module", ierr.Module).Error(err)
	} else {
		logrus.Error(err)
	}
	return subcommands.ExitFailure
}

type runCmd struct {
	dev bool
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "connect to Discord and serve every module" }
func (c *runCmd) Usage() string  { return c.Name() + " [-dev]: " + c.Synopsis() + "\n" }

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dev, "dev", false, "debug logs on the console")
}

func (c *runCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := loadConfig(c.dev)
	if err != nil {
		return failure(err)
	}
	reg, err := roles.Load(cfg.GuildsFile)
	if err != nil {
		return failure(err)
	}
	client, err := discord.New(cfg, logrus.WithField("component", "discord"))
	if err != nil {
		return failure(err)
	}
	a, err := start(cfg, client, reg)
	if err != nil {
		return failure(err)
	}
	defer a.Close()

	logrus.Infof("Starting suno with %d modules...", len(a.Modules()))
	if err := client.Run(ctx, a); err != nil {
		return failure(err)
	}
	logrus.Info("Discord bot exited cleanly")
	return subcommands.ExitSuccess
}

type consoleCmd struct {
	dev  bool
	user string
}

func (*consoleCmd) Name() string     { return "console" }
func (*consoleCmd) Synopsis() string { return "chat with the modules from the terminal" }
func (c *consoleCmd) Usage() string {
	return c.Name() + " [-dev] [-user name]: " + c.Synopsis() + "\n"
}

func (c *consoleCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.dev, "dev", false, "debug logs on the console")
	f.StringVar(&c.user, "user", "console", "name of the local user")
}

// consoleRoles gives the mock guild the three trust labels.
var consoleRoles = roles.File{Guilds: map[string]roles.Guild{
	console.GuildID: {
		Name: "console",
		Roles: map[string]string{
			"role_confiance_haute":   "3",
			"role_confiance_moyenne": "2",
			"role_confiance_basse":   "1",
		},
	},
}}

func (c *consoleCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	cfg, err := loadConfig(c.dev)
	if err != nil {
		return failure(err)
	}
	term := console.New(os.Stdin, color.Output, c.user)
	a, err := start(cfg, term, roles.New(consoleRoles))
	if err != nil {
		return failure(err)
	}
	defer a.Close()

	color.New(color.FgGreen).Printf("Mock guild ready. Try %s, /roles 3, /join <name>.\n", config.GlobalHelpTrigger)
	if err := term.Run(ctx, a); err != nil {
		return failure(err)
	}
	return subcommands.ExitSuccess
}

type checkCmd struct{}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "build every module and report integrity problems" }
func (c *checkCmd) Usage() string  { return c.Name() + ": " + c.Synopsis() + "\n" }
func (*checkCmd) SetFlags(*flag.FlagSet) {}

func (c *checkCmd) Execute(context.Context, *flag.FlagSet, ...any) subcommands.ExitStatus {
	cfg, err := loadConfig(false)
	if err != nil {
		return failure(err)
	}
	cfg.LogDir = ""
	platform := console.New(strings.NewReader(""), io.Discard, "check")
	a, err := app.New(cfg, platform, roles.New(roles.File{}), nil)
	if err != nil {
		return failure(err)
	}
	defer a.Close()

	ok, bad := color.New(color.FgGreen), color.New(color.FgRed)
	status := subcommands.ExitSuccess
	for _, f := range factories {
		m, err := f(a)
		if err != nil {
			bad.Printf("FAIL %v\n", err)
			status = subcommands.ExitFailure
			continue
		}
		ok.Printf("ok   %s (!%s, %d commands)\n", m.Name(), m.Prefix(), m.Commands().Len())
		m.Close()
	}
	return status
}
