package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/chenBenjamin97/pool-analyzer/pkg/api"
	"github.com/chenBenjamin97/pool-analyzer/pkg/utils"
	"github.com/chenBenjamin97/pool-analyzer/pkg/video"
	"github.com/lmittmann/tint"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const usage = `usage:
  poolanalyzer analyze --input <video> --output <video.avi> [--artifacts <dir>] [--preview] [--failure-policy abort|skip]
  poolanalyzer analyze <video> <video.avi>
  poolanalyzer serve [--port <port>]`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch os.Args[1] {
	case "analyze":
		err = runAnalyze(ctx, os.Args[2:])
	case "serve":
		err = runServe(ctx, os.Args[2:])
	default:
		fmt.Fprintln(os.Stderr, usage)
		err = fmt.Errorf("unknown command '%s'", os.Args[1])
	}

	if err != nil {
		slog.Error("poolanalyzer: failed", "err", err)
		stop()
		os.Exit(1)
	}
}

func setDefaults() {
	viper.SetDefault("directory.root", "./data")
	viper.SetDefault("directory.source", "./data/source")
	viper.SetDefault("directory.ready", "./data/ready")
	viper.SetDefault("directory.temp", "./data/temp")
	viper.SetDefault("directory.artifacts", "./data/artifacts")
	viper.SetDefault("video.codec", "XVID")
	viper.SetDefault("video.prod_format", "mp4")
	viper.SetDefault("http.port", "8080")
	viper.SetDefault("pipeline.failure_policy", utils.FailurePolicyAbort)
	viper.SetDefault("log.level", "info")
}

//loadConfig reads config.yaml from the working directory, flags already bound to viper win over it
func loadConfig(flags *pflag.FlagSet, required bool) error {
	setDefaults()

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || required {
			return fmt.Errorf("could not read config file, got '%v'", err)
		}
	}

	return viper.BindPFlags(flags)
}

func newLogger() *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		level = slog.LevelInfo
	}

	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      level,
			TimeFormat: "15:04:05",
		}),
	)
	slog.SetDefault(logger)
	return logger
}

func runAnalyze(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("analyze", pflag.ContinueOnError)
	input := flags.String("input", "", "video to analyze")
	output := flags.String("output", "", "annotated video to write")
	artifacts := flags.String("artifacts", ".", "directory receiving first/last frame snapshots, empty to disable")
	flags.Bool("video.preview", false, "show every frame while analyzing")
	flags.String("pipeline.failure_policy", utils.FailurePolicyAbort, "what to do with a failing frame: abort|skip")
	flags.String("log.level", "info", "debug|info|warn|error")

	//friendly aliases for the dotted keys bound to viper
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		switch name {
		case "preview":
			name = "video.preview"
		case "failure-policy":
			name = "pipeline.failure_policy"
		case "log-level":
			name = "log.level"
		}
		return pflag.NormalizedName(name)
	})

	if err := flags.Parse(args); err != nil {
		return err
	}
	if *input == "" && *output == "" && flags.NArg() == 2 {
		*input, *output = flags.Arg(0), flags.Arg(1)
	}
	if *input == "" || *output == "" {
		return fmt.Errorf("analyze: input and output are required\n%s", usage)
	}

	if err := loadConfig(flags, false); err != nil {
		return err
	}
	logger := newLogger()

	cfg, err := video.ConfigFromViper(viper.GetViper(), logger)
	if err != nil {
		return err
	}
	cfg.ArtifactsDir = strings.TrimSpace(*artifacts)

	summary, err := video.Analyze(ctx, cfg, *input, *output)
	if err != nil {
		return err
	}

	logger.Info("analyze: finished", "frames", summary.Frames, "failed", summary.Failed, "artifacts", len(summary.Artifacts), "cancelled", summary.Cancelled)
	return nil
}

func runServe(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.String("http.port", "8080", "port to listen on")
	flags.SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		if name == "port" {
			name = "http.port"
		}
		return pflag.NormalizedName(name)
	})
	if err := flags.Parse(args); err != nil {
		return err
	}

	if err := loadConfig(flags, true); err != nil {
		return err
	}
	logger := newLogger()

	//create missing directories from config file
	for _, key := range []string{"directory.root", "directory.source", "directory.ready", "directory.temp", "directory.artifacts"} {
		if err := utils.EnsureDir(viper.GetString(key)); err != nil {
			return err
		}
	}

	if viper.GetString("video.prod_format") == "" {
		return fmt.Errorf("serve: missing critical configuration 'video.prod_format'")
	}

	cfg, err := video.ConfigFromViper(viper.GetViper(), logger)
	if err != nil {
		return err
	}

	logger.Info("serve: listening", "port", viper.GetString("http.port"))
	return api.NewServer(ctx, cfg, logger).ListenAndServe(":" + viper.GetString("http.port"))
}
