// Command estimator fits the quasi-hyperbolic discounting model of effort
// choice to a real-effort experiment panel and reports maximum-likelihood
// estimates with cluster-robust standard errors.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"effortcli/internal/config"
	"effortcli/internal/discounting"
	"effortcli/internal/exporter"
	"effortcli/internal/files"
	"effortcli/internal/infrastructure"
	"effortcli/internal/panel"
)

// options are the command-line overrides on top of the configuration.
type options struct {
	dataPath      string
	outputDir     string
	configFile    string
	models        string
	bootstrapReps int
}

// modelSpec names one restriction of the structural model.
type modelSpec struct {
	name string
	mask discounting.Mask
}

func main() {
	var opts options
	flag.StringVar(&opts.dataPath, "data", "", "panel file (.csv or .xlsx); defaults to the newest file in the data directory")
	flag.StringVar(&opts.outputDir, "out", "", "output directory for reports (defaults to the configured reports directory)")
	flag.StringVar(&opts.configFile, "config", "estimator.yaml", "configuration file")
	flag.StringVar(&opts.models, "models", "full,exponential,sophisticated,noprojection", "comma-separated model specifications to fit")
	flag.IntVar(&opts.bootstrapReps, "bootstrap", -1, "bootstrap replications for the full model (-1 uses config, 0 disables)")
	flag.Parse()

	if err := run(context.Background(), opts); err != nil {
		slog.Error("estimation run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	runID := uuid.NewString()
	logger, cleanup, err := infrastructure.InitializeLogger(cfg.Logging, runID)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer cleanup()

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = cfg.Paths.ReportsDir
	}

	specs, err := parseModels(opts.models)
	if err != nil {
		return err
	}

	dataPath := opts.dataPath
	if dataPath == "" {
		dataPath, err = files.FindLatestPanel(cfg.Paths.DataDir)
		if err != nil {
			return fmt.Errorf("discover panel file: %w", err)
		}
	}

	logger.InfoContext(ctx, "loading panel", "path", dataPath)
	raw, skipped, err := panel.LoadFile(dataPath)
	if err != nil {
		return fmt.Errorf("load panel: %w", err)
	}
	if skipped > 0 {
		logger.WarnContext(ctx, "skipped malformed panel rows", "skipped", skipped)
	}

	bounds := discounting.EffortBounds{
		Min: cfg.Estimation.EffortMin,
		Max: cfg.Estimation.EffortMax,
	}

	obs, cleanReport := panel.Clean(raw, bounds)
	logger.InfoContext(ctx, "panel cleaned",
		"input", cleanReport.Input,
		"kept", cleanReport.Kept,
		"dropped", cleanReport.Dropped,
	)
	if len(obs) == 0 {
		return fmt.Errorf("no usable observations after cleaning %d rows", cleanReport.Input)
	}

	est := discounting.NewEstimator(bounds, discounting.FitConfig{
		MaxIterations: cfg.Estimation.MaxIterations,
		Tolerance:     cfg.Estimation.Tolerance,
		GradStep:      cfg.Estimation.GradStep,
	}, logger)
	start := startParams(cfg.Estimation.Start)
	writer := exporter.NewWriter(outputDir, logger)

	timestamp := time.Now()
	meta := exporter.RunMeta{
		RunID:     runID,
		Timestamp: timestamp,
		DataFile:  filepath.Base(dataPath),
	}

	var (
		full    *discounting.FitResult
		reports []exporter.ModelReport
	)
	for _, spec := range specs {
		fit, err := est.Fit(ctx, obs, start, spec.mask)
		if err != nil {
			return fmt.Errorf("fit %s model: %w", spec.name, err)
		}

		cov, err := est.ClusterRobust(ctx, obs, fit)
		if err != nil {
			return fmt.Errorf("cluster-robust variance for %s model: %w", spec.name, err)
		}

		report := exporter.ModelReport{
			Name:      spec.name,
			Fit:       fit,
			Estimates: discounting.Summarize(fit, cov),
			SEMethod:  cov.Method,
		}

		if spec.name == "full" {
			full = fit
			meta.N = fit.N
			meta.Clusters = fit.Clusters
		} else if full != nil {
			lr, err := discounting.LikelihoodRatio(full, fit)
			if err != nil {
				logger.WarnContext(ctx, "likelihood-ratio test skipped",
					"model", spec.name, "error", err)
			} else {
				report.LR = lr
			}
		}

		name := fmt.Sprintf("estimates_%s_%s.csv", spec.name, timestamp.Format("20060102"))
		if _, err := writer.WriteEstimates(name, report.Estimates); err != nil {
			return fmt.Errorf("write %s estimates: %w", spec.name, err)
		}

		reports = append(reports, report)
	}

	reps := opts.bootstrapReps
	if reps < 0 {
		reps = cfg.Estimation.BootstrapReps
	}
	if reps > 0 && full != nil {
		cov, err := est.Bootstrap(ctx, obs, full, reps, cfg.Estimation.BootstrapWorkers, uint64(timestamp.UnixNano()))
		if err != nil {
			logger.WarnContext(ctx, "bootstrap covariance failed", "error", err)
		} else {
			name := fmt.Sprintf("estimates_full_bootstrap_%s.csv", timestamp.Format("20060102"))
			if _, err := writer.WriteEstimates(name, discounting.Summarize(full, cov)); err != nil {
				return fmt.Errorf("write bootstrap estimates: %w", err)
			}
			reports = append(reports, exporter.ModelReport{
				Name:      "full (bootstrap SEs)",
				Fit:       full,
				Estimates: discounting.Summarize(full, cov),
				SEMethod:  cov.Method,
			})
		}
	}

	if full != nil {
		name := fmt.Sprintf("fitted_%s.csv", timestamp.Format("20060102"))
		if _, err := writer.WriteFitted(name, obs, full); err != nil {
			return fmt.Errorf("write fitted values: %w", err)
		}
	}

	summaryName := fmt.Sprintf("summary_%s.txt", timestamp.Format("20060102"))
	summaryPath, err := writer.WriteSummary(summaryName, exporter.FormatSummary(meta, reports))
	if err != nil {
		return fmt.Errorf("write summary: %w", err)
	}

	logger.InfoContext(ctx, "estimation run completed",
		"summary", summaryPath,
		"models", len(reports),
	)

	fmt.Print(exporter.FormatSummary(meta, reports))
	return nil
}

// parseModels resolves the -models flag into restriction masks. The full
// model is always fitted first so the restricted fits have a likelihood-ratio
// reference.
func parseModels(list string) ([]modelSpec, error) {
	known := map[string]discounting.Mask{
		"full":          discounting.FullModel(),
		"exponential":   discounting.Exponential(),
		"sophisticated": discounting.Sophisticated(),
		"noprojection":  discounting.NoProjection(),
	}

	seen := map[string]bool{"full": true}
	specs := []modelSpec{{name: "full", mask: discounting.FullModel()}}

	for _, raw := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		mask, ok := known[name]
		if !ok {
			return nil, fmt.Errorf("unknown model specification %q", name)
		}
		seen[name] = true
		specs = append(specs, modelSpec{name: name, mask: mask})
	}

	return specs, nil
}

// startParams converts the configured starting values into a parameter vector.
func startParams(s config.StartValues) discounting.Params {
	return discounting.Params{
		Beta:    s.Beta,
		BetaHat: s.BetaHat,
		Delta:   s.Delta,
		Gamma:   s.Gamma,
		Phi:     s.Phi,
		Alpha:   s.Alpha,
		Sigma:   s.Sigma,
	}
}
