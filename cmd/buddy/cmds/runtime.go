package cmds

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-go-golems/buddy/pkg/events"
	"github.com/go-go-golems/buddy/pkg/inference/engine"
	"github.com/go-go-golems/buddy/pkg/inference/engine/factory"
	"github.com/go-go-golems/buddy/pkg/inference/middleware"
	"github.com/go-go-golems/buddy/pkg/inference/protocol"
	"github.com/go-go-golems/buddy/pkg/inference/session"
	"github.com/go-go-golems/buddy/pkg/inference/toolloop"
	"github.com/go-go-golems/buddy/pkg/inference/tools"
	"github.com/go-go-golems/buddy/pkg/steps/ai/settings"
	"github.com/go-go-golems/buddy/pkg/steps/ai/types"
	"github.com/go-go-golems/buddy/pkg/tools/catalog"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Runtime is everything a command needs to run turns, resolved once from
// flags, environment and config file.
type Runtime struct {
	Settings       *settings.StepSettings
	Catalog        catalog.Catalog
	Registry       *tools.InMemoryToolRegistry
	Codec          *protocol.Codec
	LoopConfig     toolloop.LoopConfig
	DispatchConfig tools.DispatchConfig
	Middlewares    []middleware.Middleware
	DataDir        string
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".buddy", "data")
}

func loadCatalog(v *viper.Viper, dataDir string) (catalog.Catalog, error) {
	if !v.IsSet("tools") {
		return catalog.Default(dataDir), nil
	}
	var cat catalog.Catalog
	if err := mapstructure.Decode(v.Get("tools"), &cat); err != nil {
		return nil, errors.Wrap(err, "could not read tools section")
	}
	return cat, nil
}

// LoadRuntime resolves settings, builds the tool registry and the codec.
// Any tool configuration problem is reported here, before a session starts.
func LoadRuntime(v *viper.Viper) (*Runtime, error) {
	s, err := settings.NewStepSettingsFromViper(v)
	if err != nil {
		return nil, err
	}

	dataDir := v.GetString("data-dir")
	if dataDir == "" {
		dataDir = defaultDataDir()
	}

	cat, err := loadCatalog(v, dataDir)
	if err != nil {
		return nil, err
	}
	reg, err := catalog.Build(cat)
	if err != nil {
		return nil, err
	}

	var codecOpts []protocol.Option
	if !v.IsSet("prompt.live-context") || v.GetBool("prompt.live-context") {
		codecOpts = append(codecOpts,
			protocol.WithLiveContext(time.Now),
			protocol.WithProfile(v.GetStringMapString("profile")),
		)
	}
	codec, err := protocol.NewCodec(codecOpts...)
	if err != nil {
		return nil, err
	}

	loopCfg := toolloop.DefaultLoopConfig()
	if v.IsSet("loop.max-corrective-retries") {
		loopCfg = loopCfg.WithMaxCorrectiveRetries(v.GetInt("loop.max-corrective-retries"))
	}
	if v.IsSet("loop.max-tool-rounds") {
		loopCfg = loopCfg.WithMaxToolRounds(v.GetInt("loop.max-tool-rounds"))
	}
	// a Gemini chat session already remembers the turn
	if s.ApiType() == types.ApiTypeGemini && s.Gemini != nil && s.Gemini.ChatMode {
		loopCfg = loopCfg.WithStatefulTransport(true)
	}
	dispatchCfg := tools.DefaultDispatchConfig()
	if d := v.GetDuration("loop.tool-timeout"); d > 0 {
		dispatchCfg = dispatchCfg.WithExecutionTimeout(d)
	}
	if allowed := v.GetStringSlice("loop.allowed-tools"); len(allowed) > 0 {
		dispatchCfg = dispatchCfg.WithAllowedTools(allowed)
	}

	mws := []middleware.Middleware{middleware.NewCallLoggingMiddleware(log.Logger)}
	if extra := v.GetString("prompt.extra-instructions"); extra != "" {
		mws = append(mws, middleware.NewSystemPromptMiddleware(extra))
	}

	log.Debug().
		Str("api_type", string(s.ApiType())).
		Str("data_dir", dataDir).
		Int("tools", reg.Count()).
		Msg("Runtime ready")

	return &Runtime{
		Settings:       s,
		Catalog:        cat,
		Registry:       reg,
		Codec:          codec,
		LoopConfig:     loopCfg,
		DispatchConfig: dispatchCfg,
		Middlewares:    mws,
		DataDir:        dataDir,
	}, nil
}

func (r *Runtime) NewEngine() (engine.Engine, error) {
	return factory.NewEngineFromStepSettings(r.Settings)
}

// NewSession builds a session over eng with the runtime's tools.
func (r *Runtime) NewSession(eng engine.Engine, persister session.TurnPersister, sinks ...events.EventSink) (*session.Session, error) {
	b := session.NewToolLoopBuilder(
		session.WithEngine(eng),
		session.WithRegistry(r.Registry),
		session.WithCodec(r.Codec),
		session.WithLoopConfig(r.LoopConfig),
		session.WithDispatchConfig(r.DispatchConfig),
		session.WithEventSinks(sinks...),
		session.WithMiddlewares(r.Middlewares...),
	)
	if persister != nil {
		b.Persister = persister
	}
	return b.Build()
}

func closeEngine(eng engine.Engine) {
	if c, ok := eng.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Debug().Err(err).Msg("Could not close engine")
		}
	}
}
