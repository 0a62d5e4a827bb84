// Package boardroom wires the configured model backend, integration adapters
// and executive roster into a running orchestrator. Missing optional
// integrations (messaging, documents, social, registry) leave the capability
// unbound and the system degraded but functional; a missing model credential
// is a fatal configuration error.
package boardroom

import (
	"context"
	"sort"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/boardroomhq/boardroom/adapter/discord"
	"github.com/boardroomhq/boardroom/adapter/docstore"
	"github.com/boardroomhq/boardroom/adapter/redisregistry"
	"github.com/boardroomhq/boardroom/adapter/x"
	"github.com/boardroomhq/boardroom/agent"
	"github.com/boardroomhq/boardroom/capability"
	"github.com/boardroomhq/boardroom/config"
	"github.com/boardroomhq/boardroom/logging"
	"github.com/boardroomhq/boardroom/model"
	"github.com/boardroomhq/boardroom/model/anthropic"
	"github.com/boardroomhq/boardroom/model/openai"
	"github.com/boardroomhq/boardroom/orchestrator"
)

// Options configure optional application collaborators. Capabilities and
// Registry overrides bypass adapter construction, for embedding and tests.
type Options struct {
	Logger       logging.Logger
	Capabilities *capability.Set
	Registry     orchestrator.Registry
	// Model overrides provider resolution, for embedding and tests.
	Model model.Model
}

// App is the assembled application.
type App struct {
	Config       *config.Config
	Orchestrator *orchestrator.Orchestrator

	logger logging.Logger
}

// New validates the configuration, resolves the model backend, binds every
// configured integration adapter and constructs the orchestrator.
func New(ctx context.Context, cfg *config.Config, optFns ...func(o *Options)) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := Options{Logger: logging.NewDefaultSlogLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger

	llm := opts.Model
	if llm == nil {
		llm = buildModel(cfg)
	}

	caps := opts.Capabilities
	if caps == nil {
		caps = bindAdapters(cfg, logger)
	}

	registry := opts.Registry
	if registry == nil && cfg.RedisURL != "" {
		reg, err := redisregistry.Open(cfg.RedisURL, func(o *redisregistry.Options) { o.Logger = logger })
		if err != nil {
			logger.Warn("channel registry unavailable, continuing without cache", "error", err)
		} else {
			registry = reg
		}
	}

	roles := agent.ResolveRoles(roleSelection(cfg), customRoles(cfg))

	orch, err := orchestrator.New(ctx, orchestrator.Config{
		Model:        llm,
		Capabilities: caps,
		Roles:        roles,
		Business: orchestrator.BusinessInfo{
			Name:         cfg.Business.Name,
			Industry:     cfg.Business.Industry,
			Model:        cfg.Business.Model,
			FundingStage: cfg.Business.FundingStage,
			Idea:         cfg.Business.Idea,
		},
		Registry: registry,
	}, func(o *orchestrator.Options) {
		o.Logger = logger
	})
	if err != nil {
		return nil, err
	}

	return &App{Config: cfg, Orchestrator: orch, logger: logger}, nil
}

func buildModel(cfg *config.Config) model.Model {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.ModelName != "" {
				o.Model = anthropicsdk.Model(cfg.ModelName)
			}
		})
	default:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
		})
	}
}

// bindAdapters constructs every integration whose configuration is present.
// Adapter construction failures are logged and skipped; the corresponding
// capability stays unbound.
func bindAdapters(cfg *config.Config, logger logging.Logger) *capability.Set {
	caps := capability.NewSet()

	if cfg.DiscordGuildID != "" && len(cfg.DiscordTokens) > 0 {
		msg, err := discord.New(cfg.DiscordGuildID, cfg.DiscordTokens, func(o *discord.Options) { o.Logger = logger })
		if err != nil {
			logger.Warn("messaging adapter unavailable", "error", err)
		} else {
			caps.BindMessaging(msg)
		}
	} else {
		logger.Info("messaging not configured, channel operations disabled")
	}

	if cfg.DocstoreDSN != "" {
		docs, err := docstore.Open(cfg.DocstoreDSN, func(o *docstore.Options) { o.Logger = logger })
		if err != nil {
			logger.Warn("documents adapter unavailable", "error", err)
		} else {
			caps.BindDocuments(docs)
		}
	} else {
		logger.Info("document store not configured, persistence disabled")
	}

	if cfg.X.Complete() {
		social, err := x.New(x.Credentials{
			APIKey:            cfg.X.APIKey,
			APISecret:         cfg.X.APISecret,
			AccessToken:       cfg.X.AccessToken,
			AccessTokenSecret: cfg.X.AccessTokenSecret,
		}, func(o *x.Options) { o.Logger = logger })
		if err != nil {
			logger.Warn("social adapter unavailable", "error", err)
		} else {
			caps.BindSocial(social)
		}
	} else {
		logger.Info("social posting not configured")
	}

	return caps
}

// roleSelection is the selected role names plus every custom role name not
// already selected, so defining a custom role is enough to put it on the
// roster. Custom names are appended in sorted order to keep the speaking
// order stable.
func roleSelection(cfg *config.Config) []string {
	selected := append([]string(nil), cfg.SelectedRoles...)
	seen := make(map[string]bool, len(selected))
	for _, name := range selected {
		seen[name] = true
	}

	var custom []string
	for name := range cfg.CustomRoles {
		if !seen[name] {
			custom = append(custom, name)
		}
	}
	sort.Strings(custom)

	return append(selected, custom...)
}

func customRoles(cfg *config.Config) map[string]agent.CustomRole {
	if len(cfg.CustomRoles) == 0 {
		return nil
	}
	custom := make(map[string]agent.CustomRole, len(cfg.CustomRoles))
	for name, role := range cfg.CustomRoles {
		custom[name] = agent.CustomRole{
			Description: role.Description,
			Icon:        role.Icon,
			Color:       role.Color,
		}
	}
	return custom
}

// StartWorkSession starts a working session of the configured duration,
// beginning now.
func (a *App) StartWorkSession(ctx context.Context) (*orchestrator.WorkingSession, error) {
	minutes := a.Config.SessionDurationMinutes
	start := time.Now()
	return a.Orchestrator.StartSession(ctx, start, start.Add(time.Duration(minutes)*time.Minute), minutes)
}

// Close releases background resources.
func (a *App) Close() {
	a.Orchestrator.Close()
}
