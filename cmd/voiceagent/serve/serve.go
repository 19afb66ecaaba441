package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/voiceagent/api"
	"github.com/papercomputeco/voiceagent/pkg/agent"
	"github.com/papercomputeco/voiceagent/pkg/config"
	"github.com/papercomputeco/voiceagent/pkg/llm"
	"github.com/papercomputeco/voiceagent/pkg/logger"
	"github.com/papercomputeco/voiceagent/pkg/session"
	"github.com/papercomputeco/voiceagent/pkg/stt"
	"github.com/papercomputeco/voiceagent/pkg/tts"
	"github.com/papercomputeco/voiceagent/pkg/uploads"
)

const serveLongDesc string = `Run the voice agent HTTP server.

Settings come from built-in defaults, an optional TOML file (--config),
a .env file, the process environment and finally the flags below, each
overriding the one before. The AssemblyAI, Gemini and Murf API keys are
required.

Examples:
  voiceagent serve
  voiceagent serve --listen :9000 --debug
  voiceagent serve --config voiceagent.toml --log-format json`

const serveShortDesc string = "Run the voice agent server"

type serveCommander struct {
	configPath string
	envFile    string
	listen     string
	uploadDir  string
	staticDir  string
	logFormat  string
	debug      bool
}

func NewServeCmd() *cobra.Command {
	return newServeCmd(&serveCommander{})
}

func newServeCmd(cmder *serveCommander) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.configPath, "config", "c", "", "Path to a TOML config file")
	cmd.Flags().StringVar(&cmder.envFile, "env-file", ".env", "Path to a dotenv file (ignored if missing)")
	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default :8000)")
	cmd.Flags().StringVar(&cmder.uploadDir, "upload-dir", "", "Directory for staged uploads")
	cmd.Flags().StringVar(&cmder.staticDir, "static-dir", "", "Directory holding the browser client")
	cmd.Flags().StringVar(&cmder.logFormat, "log-format", "", "Log format: console or json")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogFormat, cfg.Debug)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	srv, store, err := newServer(cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info("shutting down voice agent server")
		if err := srv.Shutdown(); err != nil {
			return fmt.Errorf("could not shut down server: %w", err)
		}
		return <-errCh
	}
}

// loadConfig layers explicitly set flags over the loaded configuration and
// validates the result.
func (c *serveCommander) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(c.configPath, c.envFile)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.ListenAddr = c.listen
	}
	if flags.Changed("upload-dir") {
		cfg.UploadDir = c.uploadDir
	}
	if flags.Changed("static-dir") {
		cfg.StaticDir = c.staticDir
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = c.logFormat
	}
	if flags.Changed("debug") {
		cfg.Debug = c.debug
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// newServer wires the providers, session store and upload stager into an
// api.Server. The caller owns the returned store.
func newServer(cfg *config.Config, log *zap.Logger) (*api.Server, session.Store, error) {
	stager, err := uploads.NewStager(cfg.UploadDir, log)
	if err != nil {
		return nil, nil, err
	}

	transcriber := stt.NewAssemblyAI(stt.Config{
		APIKey:       cfg.AssemblyAI.APIKey,
		BaseURL:      cfg.AssemblyAI.BaseURL,
		Timeout:      cfg.AssemblyAI.Timeout,
		PollInterval: cfg.AssemblyAI.PollInterval,
	}, log.Named("assemblyai"))

	generation := &llm.GenerationConfig{
		Temperature:     cfg.Gemini.Temperature,
		MaxOutputTokens: cfg.Gemini.MaxTokens,
	}
	if generation.IsZero() {
		generation = nil
	}

	completer := llm.NewGemini(llm.Config{
		APIKey:     cfg.Gemini.APIKey,
		BaseURL:    cfg.Gemini.BaseURL,
		Model:      cfg.Gemini.Model,
		Timeout:    cfg.Gemini.Timeout,
		Generation: generation,
	}, log.Named("gemini"))

	synth := tts.NewMurf(tts.Config{
		APIKey:  cfg.Murf.APIKey,
		BaseURL: cfg.Murf.BaseURL,
		Voice:   cfg.Murf.Voice,
		Timeout: cfg.Murf.Timeout,
	}, log.Named("murf"))

	store := session.NewMemoryStore()

	a := agent.New(store, agent.Providers{
		Transcriber: transcriber,
		Completer:   completer,
		Speaker:     tts.NewChunker(synth, cfg.Murf.ChunkSize, log),
		Voice:       cfg.Murf.Voice,
	}, log.Named("agent"))

	srv, err := api.NewServer(api.Config{
		ListenAddr:         cfg.ListenAddr,
		StaticDir:          cfg.StaticDir,
		BodyLimit:          cfg.MaxUploadBytes,
		GenerateAudioVoice: cfg.Murf.GenerateAudioVoice,
	}, a, stager, log)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	return srv, store, nil
}
