package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"

	"github.com/odvcencio/repostat/pkg/config"
	"github.com/odvcencio/repostat/pkg/repo"
	"github.com/odvcencio/repostat/pkg/stats"
)

func newStatCmd() *cobra.Command {
	var (
		workers    int
		format     string
		compress   bool
		sign       bool
		keyPath    string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "stat [path]",
		Short: "Compute repository statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			r, err := repo.Open(path)
			if err != nil {
				return fmt.Errorf("open repository: %w", err)
			}

			cfg, err := config.Load(configPath, r.GotDir)
			if err != nil {
				return err
			}
			if format == "" {
				format = cfg.Output.Format
			}
			if !cmd.Flags().Changed("compress") {
				compress = cfg.Output.Compress
			}
			if keyPath == "" {
				keyPath = cfg.Signing.Key
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			adapter := stats.NewStoreAdapter(r.Store)
			listRefs := func() ([]string, error) {
				refs, err := r.ListRefs("")
				if err != nil {
					return nil, err
				}
				names := make([]string, 0, len(refs))
				for name := range refs {
					names = append(names, name)
				}
				return names, nil
			}

			opts := []stats.Option{}
			if n := config.ResolveWorkers(workers, cfg); n > 0 {
				opts = append(opts, stats.WithWorkerCount(n))
			}

			analyzer := stats.NewAnalyzer(adapter, listRefs, opts...)
			report, err := analyzer.Analyze(ctx)
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			encoded, err := encodeReport(report, format)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var written []byte
			if compress {
				var zerr error
				written, zerr = zstdCompress(encoded)
				if zerr != nil {
					return fmt.Errorf("compress report: %w", zerr)
				}
			} else {
				written = encoded
			}
			if _, err := out.Write(written); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !compress {
				fmt.Fprintln(out)
			}

			if sign {
				sig, err := signPayload(written, keyPath)
				if err != nil {
					return fmt.Errorf("sign report: %w", err)
				}
				sigPath := filepath.Join(r.RootDir, "repostat-report.sig")
				if err := os.WriteFile(sigPath, []byte(sig+"\n"), 0o644); err != nil {
					return fmt.Errorf("write signature: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote signature to %s\n", sigPath)
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "override worker pool size (0 = auto)")
	cmd.Flags().StringVar(&format, "format", "", "output format: json or json-compact")
	cmd.Flags().BoolVar(&compress, "compress", false, "zstd-compress the rendered report")
	cmd.Flags().BoolVar(&sign, "sign", false, "write a detached SSH signature alongside the report")
	cmd.Flags().StringVar(&keyPath, "key", "", "SSH private key used for --sign")
	cmd.Flags().StringVar(&configPath, "config", "", "path to a repostat config file")

	return cmd
}

func encodeReport(report *stats.Report, format string) ([]byte, error) {
	switch format {
	case "", "json":
		return json.MarshalIndent(report, "", "  ")
	case "json-compact":
		return json.Marshal(report)
	default:
		return nil, fmt.Errorf("unknown format %q (want json or json-compact)", format)
	}
}

func zstdCompress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}
