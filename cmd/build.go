package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/barisgit/fluxbuild/internal/bundler"
	"github.com/barisgit/fluxbuild/internal/config"
	"github.com/barisgit/fluxbuild/internal/logger"
	"github.com/barisgit/fluxbuild/internal/normalize"
	"github.com/barisgit/fluxbuild/internal/watch"
)

type BuildOrchestrator struct {
	workspace     *config.Workspace
	project       string
	configuration string
	watch         bool
	debug         bool
	logger        logger.Logger
	normalizer    *normalize.Normalizer
	bundler       *bundler.Bundler
}

func BuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [project]",
		Short: "Build a project",
		Long:  "Normalize the build options of a project and bundle it with esbuild",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runBuild,
	}

	addWorkspaceFlags(cmd)
	cmd.Flags().Bool("watch", false, "Rebuild when files change")

	return cmd
}

func runBuild(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	configuration, _ := cmd.Flags().GetString("configuration")
	debug, _ := cmd.Flags().GetBool("debug")
	watchFlag, _ := cmd.Flags().GetBool("watch")

	if err := loadEnv(); err != nil {
		return err
	}

	ws, err := loadWorkspace(configPath)
	if err != nil {
		return err
	}
	project, err := pickProject(ws, args)
	if err != nil {
		return err
	}

	log := logger.FromDebug(debug)
	orchestrator := &BuildOrchestrator{
		workspace:     ws,
		project:       project,
		configuration: configuration,
		watch:         watchFlag,
		debug:         debug,
		logger:        log,
		normalizer:    newNormalizer(ws, log, cmd.Root().Version),
		bundler:       bundler.New(afero.NewOsFs(), log),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return orchestrator.Run(ctx)
}

func (b *BuildOrchestrator) log(message, color string) {
	timestamp := time.Now().Format("15:04:05")
	if color == "" {
		color = "\x1b[0m"
	}
	fmt.Printf("%s[%s] %s\x1b[0m\n", color, timestamp, message)
}

// Run builds once and, when watching, keeps rebuilding until ctx is done
func (b *BuildOrchestrator) Run(ctx context.Context) error {
	n, err := b.Build(ctx)
	if err != nil {
		return err
	}
	if !b.watch && !n.Watch {
		return nil
	}
	return b.Watch(ctx, n)
}

// Build normalizes the project options and bundles them
func (b *BuildOrchestrator) Build(ctx context.Context) (*normalize.Options, error) {
	b.log(fmt.Sprintf("🚀 Building %s...", b.describe()), "\x1b[32m")
	started := time.Now()

	raw, err := b.workspace.BuildOptions(b.project, b.configuration)
	if err != nil {
		return nil, err
	}

	n, err := b.normalizer.Normalize(ctx, b.project, raw)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize build options: %w", err)
	}
	if b.debug {
		b.log(fmt.Sprintf("🔧 Output path: %s", n.OutputPath), "\x1b[36m")
		if n.Tailwind != nil {
			b.log(fmt.Sprintf("🎨 Tailwind CSS: %s", n.Tailwind.File), "\x1b[36m")
		}
	}

	res, err := b.bundler.Build(ctx, n)
	if err != nil {
		b.log("❌ Build failed", "\x1b[31m")
		return nil, err
	}

	b.log(fmt.Sprintf("✅ Built %d files and copied %d assets in %s",
		len(res.Files), res.Assets, time.Since(started).Round(time.Millisecond)), "\x1b[32m")
	return n, nil
}

// Watch rebuilds on changes under the project root
func (b *BuildOrchestrator) Watch(ctx context.Context, n *normalize.Options) error {
	w := watch.New(watch.Config{
		Root:    n.ProjectRoot,
		Poll:    time.Duration(n.Poll) * time.Millisecond,
		Exclude: []string{n.OutputPath, n.CacheOptions.BasePath},
		Logger:  b.logger,
	})

	b.log(fmt.Sprintf("👁️  Watching %s for changes (Ctrl+C to stop)", n.ProjectRoot), "\x1b[36m")
	err := w.Run(ctx, func(ctx context.Context, changed []string) error {
		if b.debug {
			b.log(fmt.Sprintf("📝 Changed: %s", strings.Join(changed, ", ")), "\x1b[36m")
		}
		_, err := b.Build(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("watch stopped: %w", err)
	}
	b.log("👋 Watch stopped", "\x1b[33m")
	return nil
}

func (b *BuildOrchestrator) describe() string {
	if b.configuration == "" {
		return b.project
	}
	return fmt.Sprintf("%s (%s)", b.project, b.configuration)
}
