package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zeusync/miau/internal/config"
	"github.com/zeusync/miau/internal/core/ecs"
	"github.com/zeusync/miau/internal/core/gfx"
	"github.com/zeusync/miau/internal/core/scene"
	"github.com/zeusync/miau/internal/core/schema/registry"
	"github.com/zeusync/miau/internal/engine"
	"github.com/zeusync/miau/internal/injector"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "miau",
		Short:         "miau engine tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (yaml)")

	root.AddCommand(newRunCmd(&configPath), newSceneCmd())
	return root
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newRunCmd(configPath *string) *cobra.Command {
	var (
		frames int
		assets string
		load   string
		save   string
		shader string
		speed  float32
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the model viewer on the headless backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("frames") {
				cfg.Window.Frames = frames
			}
			if flags.Changed("assets") {
				cfg.Assets.Location = assets
			}
			if flags.Changed("shader") {
				cfg.Renderer.Shader = shader
			}
			if load != "" {
				cfg.Scene.Load = load
			}
			if save != "" {
				cfg.Scene.Save = save
			}
			if err = cfg.Validate(); err != nil {
				return err
			}

			e, err := injector.InitializeEngine(cfg)
			if err != nil {
				return err
			}
			e.AddSystem(ecs.StageStart, "viewer.spawn", engine.SpawnModel(cfg.Renderer.Mesh, cfg.Renderer.Tex, speed))
			return e.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVarP(&frames, "frames", "n", 60, "frames to draw before closing, 0 runs until interrupted")
	cmd.Flags().StringVar(&assets, "assets", ".", "asset directory or .zip archive")
	cmd.Flags().StringVar(&load, "load", "", "scene file to load instead of spawning the default model")
	cmd.Flags().StringVar(&save, "save", "", "scene file written on exit")
	cmd.Flags().StringVar(&shader, "shader", gfx.StandardShaderPath, "shader asset path")
	cmd.Flags().Float32Var(&speed, "spin", 1.2, "spin speed of the default model in radians per second")
	return cmd
}

func newSceneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scene",
		Short: "Scene file tools",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "inspect <file>",
		Short: "List the component types of a scene file with their row counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return inspectScene(cmd, args[0])
		},
	})
	return cmd
}

func inspectScene(cmd *cobra.Command, path string) error {
	reg := registry.New()
	if err := reg.Apply(engine.Manifest()...); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	summary, err := scene.Inspect(reg, f)
	if err != nil {
		return fmt.Errorf("inspect %s: %w", path, err)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TYPE ID\tCOMPONENT\tROWS")
	for _, s := range summary {
		name := s.Name
		if !s.Known() {
			name = "<unknown>"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\n", s.ID, name, s.Rows)
	}
	return tw.Flush()
}
