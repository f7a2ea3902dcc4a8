// Copyright 2025 Transpilot Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/transpilot/transpilot/analysis"
	"github.com/transpilot/transpilot/config"
	"github.com/transpilot/transpilot/decision"
	"github.com/transpilot/transpilot/hybrid"
	"github.com/transpilot/transpilot/internal/log"
	"github.com/transpilot/transpilot/llm"
	"github.com/transpilot/transpilot/oracle"
	"github.com/transpilot/transpilot/vcs"
	"github.com/transpilot/transpilot/version"
	"github.com/transpilot/transpilot/workflow"
	"github.com/transpilot/transpilot/workspace"
)

var (
	flagFeature     string
	flagAll         bool
	flagMaxAttempts int
	flagFullOutput  bool
	flagVerbose     bool

	rootCmd = &cobra.Command{
		Use:           "transpilot",
		Short:         "Iterative C-to-Rust translation driver",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	translateCmd = &cobra.Command{
		Use:   "translate",
		Short: "Translate the pending units of a feature",
		RunE:  runTranslate,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the transpilot version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("transpilot " + version.Version)
		},
	}
)

func init() {
	translateCmd.Flags().StringVar(&flagFeature, "feature", "", "feature to translate (required)")
	translateCmd.Flags().BoolVar(&flagAll, "all", false, "process all pending units without prompting")
	translateCmd.Flags().IntVar(&flagMaxAttempts, "max-fix-attempts", 10, "compile attempts per unit before asking what to do")
	translateCmd.Flags().BoolVar(&flagFullOutput, "full-output", false, "show untruncated code previews and diagnostics")
	translateCmd.MarkFlagRequired("feature")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.AddCommand(translateCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if workflow.IsUserAbort(err) {
			log.Info("run aborted by user")
			os.Exit(workflow.ExitAbort)
		}
		log.Error("%v", err)
		os.Exit(workflow.ExitFatal)
	}
}

func runTranslate(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		log.SetLogLevel(log.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	feature, err := workspace.Resolve(cwd, flagFeature)
	if err != nil {
		return &workflow.FatalInitError{Reason: "resolve feature " + flagFeature, Err: err}
	}
	cfg, err := config.Load(feature.MarkerPath())
	if err != nil {
		return &workflow.FatalInitError{Reason: "load configuration", Err: err}
	}
	cmds := cfg.Resolve(feature.Name)

	port := decision.NewConsolePort()
	selectAll := flagAll
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		// no one to answer a selection prompt
		selectAll = true
	}

	orc, err := buildOrchestrator(ctx, feature, cfg, cmds, port)
	if err != nil {
		return err
	}
	orc.MaxFixAttempts = flagMaxAttempts
	orc.SelectAll = selectAll
	orc.FullOutput = flagFullOutput

	return orc.Run(ctx)
}

func buildOrchestrator(ctx context.Context, feature *workspace.Feature, cfg *config.Config, cmds config.Feature, port decision.Port) (*workflow.Orchestrator, error) {
	repo, err := vcs.Open(feature.Root)
	if err != nil {
		return nil, &workflow.FatalInitError{Reason: "open repository", Err: err}
	}
	orc, err := newOracle(ctx, feature, cfg)
	if err != nil {
		return nil, err
	}

	compile := func(ctx context.Context) error {
		return hybrid.Exec(ctx, feature.Root, cmds.Compile)
	}
	var verify func(ctx context.Context) error
	if cmds.HasHybrid() {
		runner := &hybrid.Runner{Feature: feature.Name, Root: feature.Root, Cmds: cmds}
		verify = runner.Run
	} else {
		log.Warn("feature %s has no clean/build/test triple, falling back to the test command", feature.Name)
		verify = func(ctx context.Context) error {
			return hybrid.Exec(ctx, feature.Root, cmds.Test)
		}
	}

	return &workflow.Orchestrator{
		Feature:  feature,
		Port:     port,
		Suspend:  decision.NewSuspender(port),
		Oracle:   orc,
		Repo:     repo,
		Analysis: &analysis.Syncer{Feature: feature.Name, Dir: feature.Root},
		Compile:  compile,
		Verify:   verify,
	}, nil
}

// newOracle picks the translation backend: an external translator command
// when one is configured, otherwise a direct chat model call.
func newOracle(ctx context.Context, feature *workspace.Feature, cfg *config.Config) (oracle.Oracle, error) {
	mode := cfg.Oracle.Mode
	if mode == "" {
		if cfg.Oracle.Command != "" {
			mode = "exec"
		} else {
			mode = "model"
		}
	}
	switch mode {
	case "exec":
		configPath := cfg.Oracle.ConfigPath
		if configPath == "" {
			configPath = filepath.Join(feature.MarkerPath(), "config.toml")
		}
		return oracle.NewExecOracle(cfg.Oracle.Command, configPath, feature.Root), nil
	case "model":
		mc := llm.ModelConfig{
			APIType:   llm.NewModelType(cfg.Model.APIType),
			BaseURL:   cfg.Model.BaseURL,
			APIKey:    cfg.Model.APIKey,
			ModelName: cfg.Model.ModelName,
			MaxTokens: cfg.Model.MaxTokens,
		}
		if mc.APIKey == "" {
			mc.APIKey = os.Getenv("TRANSPILOT_API_KEY")
		}
		if cfg.Model.Temperature != 0 {
			temp := float32(cfg.Model.Temperature)
			mc.Temperature = &temp
		}
		model, err := llm.NewChatModel(ctx, mc)
		if err != nil {
			return nil, &workflow.FatalInitError{Reason: "construct chat model", Err: err}
		}
		return oracle.NewModelOracle(model, mc), nil
	}
	return nil, &workflow.FatalInitError{Reason: "unknown oracle mode " + mode}
}
