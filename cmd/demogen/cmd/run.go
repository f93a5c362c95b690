package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"demogen/cmd/demogen/logger"
	"demogen/config"
	"demogen/demo"
	"demogen/gh"
	"demogen/llm"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process every target repository once",
	Args:  cobra.NoArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		// Fix Viper bug for duplicate flags:
		// https://github.com/spf13/viper/issues/233
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			panic(err)
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		lg := logger.New()
		ctx := lg.WithContext(cmd.Context())

		cfg, err := config.Load()
		if err != nil {
			lg.Fatal().Err(err).Msg("invalid configuration")
		}

		runner := demo.NewRunner(
			cfg,
			gh.New(cfg.GithubToken),
			llm.New(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel),
		)

		lg.Info().Int("repositories", len(cfg.TargetRepos)).Msg("starting run")
		if err := runner.Run(ctx); err != nil {
			lg.Fatal().Err(err).Msg("run failed")
		}
	},
}
