package main

import (
	"github.com/spf13/cobra"

	"github.com/sartorproj/gopowerstats/internal/render"
	"github.com/sartorproj/gopowerstats/smoothing"
)

func newKernelCmd(a *app) *cobra.Command {
	preset := smoothing.HistoryConfig()
	cmd := &cobra.Command{
		Use:   "kernel",
		Short: "Print the Gaussian smoothing kernel",
		Long: `The 'kernel' command prints the weights of the Gaussian kernel built for
--kernel-length and --sigma, and fails when they do not sum to 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.load(cmd, preset)
			if err != nil {
				return err
			}
			kernel, err := smoothing.New(cfg.Config, a.logger).Kernel()
			if err != nil {
				return err
			}
			if cfg.Verbose {
				kernel.Log(a.logger)
			}
			return render.Kernel(a.out, cfg.Format, kernel)
		},
	}
	addSmoothingFlags(cmd, preset)
	return cmd
}
