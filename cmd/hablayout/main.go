// Command hablayout packs habitat modules into a pressure shell from the
// command line: load a layout, optimize it, resolve overflow
// interactively or via --remove-all, and export the result.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/orbitforge/hablayout/internal/engine"
	"github.com/orbitforge/hablayout/internal/export"
	"github.com/orbitforge/hablayout/internal/logging"
	"github.com/orbitforge/hablayout/internal/model"
	"github.com/orbitforge/hablayout/internal/project"
	"github.com/orbitforge/hablayout/internal/requirements"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "hablayout:", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("hablayout", pflag.ContinueOnError)
	flags.String("layout", "layout.json", "layout JSON file to load and save")
	flags.String("requirements", "", "requirements catalog (CSV or XLSX)")
	flags.Int("crew", 0, "crew size (0 = layout value or config default)")
	flags.Bool("ensure-critical", false, "add modules for missing critical functions before packing")
	flags.Bool("remove-all", false, "resolve overflow by removing all overflowing modules")
	flags.Bool("dry-run", false, "do not write the layout back after optimizing")
	flags.Bool("compare", false, "print a per-strategy comparison and exit")
	flags.String("pdf", "", "write a PDF plan report to this path")
	flags.String("dxf", "", "write a DXF plan view to this path")
	flags.String("labels", "", "write QR module labels PDF to this path")
	flags.Int("backups", 5, "timestamped backups to keep next to the layout")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text or json")
	if err := flags.Parse(os.Args[1:]); err != nil {
		return err
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(project.DefaultConfigDir())
	v.AddConfigPath(".")
	v.SetEnvPrefix("HABLAYOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}
	}

	log := logging.New(logging.Config{
		Level:  v.GetString("log-level"),
		Format: v.GetString("log-format"),
	})

	appCfg, err := project.LoadAppConfig(project.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("load app config: %w", err)
	}

	layout, err := project.LoadLayout(v.GetString("layout"))
	if err != nil {
		return fmt.Errorf("load layout: %w", err)
	}
	if crew := v.GetInt("crew"); crew > 0 {
		layout.Crew = crew
	} else if layout.Crew <= 0 {
		layout.Crew = appCfg.DefaultCrew
	}

	var catalog *requirements.Catalog
	catalogPath := v.GetString("requirements")
	if catalogPath == "" {
		catalogPath = appCfg.RequirementsPath
	}
	if catalogPath != "" {
		res := requirements.Load(catalogPath)
		for _, w := range res.Warnings {
			log.Warn("requirements", logging.String("detail", w))
		}
		if len(res.Errors) > 0 {
			return fmt.Errorf("load requirements: %s", strings.Join(res.Errors, "; "))
		}
		catalog = res.Catalog
		log.Info("requirements loaded",
			logging.String("path", catalogPath),
			logging.Int("entries", catalog.Len()))
	}

	if v.GetBool("ensure-critical") {
		if catalog == nil {
			return errors.New("--ensure-critical needs a requirements catalog")
		}
		rep := catalog.EnsureCritical(&layout)
		for _, m := range rep.Added {
			fmt.Printf("added %-10s %s / %s (%.2f x %.2f x %.2f m)\n", m.ID, m.Type, m.Function, m.W, m.D, m.H)
		}
		fmt.Printf("requirement coverage: %.0f%% (%d/%d)\n", rep.Score, rep.Covered, rep.Required)
	}

	var lookup engine.SizeLookup
	if catalog != nil {
		lookup = catalog
	}

	if v.GetBool("compare") {
		printComparison(layout, lookup)
		return nil
	}

	opt := engine.NewOptimizer(log)
	opt.Lookup = lookup

	var decide engine.DecisionFunc
	if v.GetBool("remove-all") {
		decide = func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (engine.Decision, error) {
			return engine.Decision{RemoveAll: true}, nil
		}
	} else {
		decide = stdinDecider(os.Stdin)
	}

	result, err := opt.Optimize(context.Background(), &layout, decide)
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	printResult(layout, result)

	if result.Accepted && !v.GetBool("dry-run") {
		if _, err := project.WriteTimestampedBackup(v.GetString("layout"), layout, v.GetInt("backups")); err != nil {
			log.Warn("backup failed", logging.Any("error", err))
		}
		if err := project.SaveLayout(v.GetString("layout"), layout); err != nil {
			return fmt.Errorf("save layout: %w", err)
		}
		appCfg.AddRecentLayout(v.GetString("layout"), 10)
		if err := project.SaveAppConfig(project.DefaultConfigPath(), appCfg); err != nil {
			log.Warn("save app config failed", logging.Any("error", err))
		}
	}

	if path := v.GetString("pdf"); path != "" {
		if err := export.ExportPDF(path, layout); err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		fmt.Println("wrote", path)
	}
	if path := v.GetString("dxf"); path != "" {
		if err := export.ExportDXF(path, layout); err != nil {
			return fmt.Errorf("export dxf: %w", err)
		}
		fmt.Println("wrote", path)
	}
	if path := v.GetString("labels"); path != "" {
		if err := export.ExportLabels(path, layout); err != nil {
			return fmt.Errorf("export labels: %w", err)
		}
		fmt.Println("wrote", path)
	}
	return nil
}

// stdinDecider prompts on stdout and reads one decision per overflow
// round: a module id, "all", or "cancel".
func stdinDecider(in *os.File) engine.DecisionFunc {
	reader := bufio.NewReader(in)
	return func(ctx context.Context, overflow []model.Overflow, candidates []model.Module, attempt int) (engine.Decision, error) {
		fmt.Printf("\nattempt %d: %d module(s) do not fit:\n", attempt, len(overflow))
		for _, ov := range overflow {
			fmt.Printf("  %-10s %-16s %.2f x %.2f x %.2f m  (%s)\n",
				ov.Module.ID, ov.Module.Type, ov.Module.W, ov.Module.D, ov.Module.H, ov.Reason)
		}
		for {
			fmt.Print("remove [module id | all | cancel]: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return engine.Decision{Cancel: true}, nil
			}
			switch answer := strings.TrimSpace(line); answer {
			case "":
				continue
			case "all":
				return engine.Decision{RemoveAll: true}, nil
			case "cancel":
				return engine.Decision{Cancel: true}, nil
			default:
				return engine.Decision{ModuleID: answer}, nil
			}
		}
	}
}

func printComparison(layout model.Layout, lookup engine.SizeLookup) {
	reports := engine.CompareStrategies(layout.Habitat, layout.Modules, lookup, nil)
	fmt.Printf("%-10s %8s %9s %7s %9s\n", "strategy", "placed", "overflow", "fill", "overlaps")
	for _, r := range reports {
		fmt.Printf("%-10s %8d %9d %6.1f%% %9d\n",
			r.Strategy.Name, r.PlacedCount, r.OverflowCount, r.FillPercent, r.OverlapCount)
	}
}

func printResult(layout model.Layout, result *model.OptimizeResult) {
	fmt.Printf("\n%s: %s", layout.Name, result.State)
	if result.Accepted {
		fmt.Printf(" (strategy %s, %d attempt(s))", result.Strategy, result.Attempts)
	}
	fmt.Println()
	fmt.Printf("  placed: %d  removed: %d  infeasible: %d\n",
		len(result.Placements), len(result.Removed), len(result.Infeasible))
	for _, m := range result.Removed {
		fmt.Printf("  removed    %-10s %s\n", m.ID, m.Type)
	}
	for _, inf := range result.Infeasible {
		fmt.Printf("  infeasible %-10s %s (%s)\n", inf.Module.ID, inf.Module.Type, inf.Reason)
	}
	for _, pair := range result.Overlaps {
		fmt.Printf("  overlap    %s <-> %s\n", pair[0], pair[1])
	}
	if result.Accepted {
		metrics := model.ComputeMetrics(layout.Habitat, layout.Modules)
		fmt.Printf("  crew capacity: %d  power: %.1f kW  volume usage: %.0f%%\n",
			metrics.CrewCapacity, metrics.PowerUsageKW, metrics.SpaceUsageRatio*100)
	}
}
