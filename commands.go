package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"asxhub/internal/config"
	"asxhub/internal/driver"
	"asxhub/internal/logging"
	"asxhub/internal/plugin"
	"asxhub/internal/preset"
	"asxhub/internal/service"
	"asxhub/internal/startup"
	"asxhub/internal/system"
	"asxhub/internal/tweak"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli holds the root flags and the App built from them.
type cli struct {
	configPath string
	verbose    bool
	dryRun     bool
	jsonOut    bool

	deps Deps
	app  *App
	root *cobra.Command
}

func newCLI(deps Deps) *cli {
	c := &cli{deps: deps}
	c.root = c.rootCmd()
	return c
}

// Execute runs the command line. Dry-run changes are reported and the log is
// flushed also when the command failed.
func (c *cli) Execute(ctx context.Context) error {
	err := c.root.ExecuteContext(ctx)
	c.teardown()
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "asxhub",
		Short: "ASX Hub - Windows tweaks, presets and system tools",
		Long: `ASX Hub toggles registry, service, scheduled-task and power-plan tweaks,
applies presets, manages startup programs and drivers, and downloads helper tools.

Run without arguments to start the interactive menu.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMenu(cmd.Context(), c.app)
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default <data_dir>/asxhub.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&c.dryRun, "dry-run", false, "show what would change without writing anything")
	root.PersistentFlags().BoolVar(&c.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		c.listCmd(),
		c.statusCmd(),
		c.actionCmd(Enable, "Apply tweaks"),
		c.actionCmd(Disable, "Revert tweaks"),
		c.actionCmd(Toggle, "Flip tweaks"),
		c.analyzeCmd(),
		c.presetCmd(),
		c.restoreCmd(),
		c.infoCmd(),
		c.startupCmd(),
		c.driversCmd(),
		c.downloadCmd(),
		c.pluginsCmd(),
		versionCmd(),
		&cobra.Command{
			Use:   "menu",
			Short: "Start the interactive menu",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runMenu(cmd.Context(), c.app)
			},
		},
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.dryRun {
		cfg.DryRun = true
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Verbose: c.verbose})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	c.app, err = NewApp(cfg, log, c.deps)
	return err
}

// teardown writes dry-run changes to stderr so stdout stays parseable.
func (c *cli) teardown() {
	if c.app == nil {
		return
	}
	if c.app.Overlay != nil {
		printChanges(c.root.ErrOrStderr(), c.app)
	}
	_ = c.app.Log.Sync()
}

func (c *cli) emit(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var (
	okMark   = color.New(color.FgHiGreen).Sprint("✓")
	offMark  = color.New(color.FgHiBlack).Sprint("·")
	failMark = color.New(color.FgHiRed).Sprint("✗")
	heading  = color.New(color.FgHiCyan, color.Bold)
)

// ============================================================
// Tweaks
// ============================================================

func (c *cli) listCmd() *cobra.Command {
	var category string
	var refresh bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tweaks with their current status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat := tweak.Category(strings.ToLower(category))
			if cat != "" && !cat.Valid() {
				return fmt.Errorf("unknown category %q", category)
			}
			snap, err := c.app.Analyze(cmd.Context(), refresh)
			if err != nil {
				return err
			}
			results := snap.Results
			if cat != "" {
				results = results[:0:0]
				for _, r := range snap.Results {
					if r.Category == cat {
						results = append(results, r)
					}
				}
			}
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), results)
			}

			out := cmd.OutOrStdout()
			current := tweak.Category("")
			for _, r := range results {
				if r.Category != current {
					current = r.Category
					heading.Fprintf(out, "\n  ═══ %s ═══\n", strings.ToUpper(string(current)))
				}
				mark := offMark
				switch {
				case r.Failed():
					mark = failMark
				case r.Enabled:
					mark = okMark
				}
				fmt.Fprintf(out, "  %s %-34s %s\n", mark, r.Key, r.Title)
			}
			sum := snap.Summary()
			fmt.Fprintf(out, "\n  %d tweaks, %d enabled, %d unreadable\n", sum.Total, sum.Enabled, sum.Failed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only show one category ("+categoryNames()+")")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached snapshot")
	return cmd
}

func categoryNames() string {
	names := make([]string, len(tweak.Categories))
	for i, cat := range tweak.Categories {
		names[i] = string(cat)
	}
	return strings.Join(names, ", ")
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <key>",
		Short: "Show one tweak and its live status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := c.app.Lookup(args[0])
			if err != nil {
				return err
			}
			r := c.app.Analyzer.Check(cmd.Context(), t)
			meta := t.Metadata()
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), struct {
					tweak.Metadata
					Enabled bool   `json:"enabled"`
					Error   string `json:"error,omitempty"`
				}{meta, r.Enabled, r.Error})
			}

			out := cmd.OutOrStdout()
			heading.Fprintf(out, "  %s\n", meta.Title)
			fmt.Fprintf(out, "  Key:         %s\n", meta.Key)
			fmt.Fprintf(out, "  Category:    %s\n", meta.Category)
			fmt.Fprintf(out, "  Description: %s\n", meta.Description)
			fmt.Fprintf(out, "  Source:      %s\n", meta.Source)
			fmt.Fprintf(out, "  Admin:       %v\n", meta.RequiresAdmin)
			fmt.Fprintf(out, "  Restart:     %v\n", meta.RequiresRestart)
			if r.Failed() {
				fmt.Fprintf(out, "  Status:      %s %s\n", failMark, r.Error)
			} else {
				fmt.Fprintf(out, "  Status:      %s\n", onOff(r.Enabled))
			}
			return nil
		},
	}
}

func onOff(on bool) string {
	if on {
		return okMark + " enabled"
	}
	return offMark + " disabled"
}

// actionOutcome is one key of an enable, disable or toggle run.
type actionOutcome struct {
	Key     string `json:"key"`
	Enabled bool   `json:"enabled"`
	Error   string `json:"error,omitempty"`
}

func (c *cli) actionCmd(action Action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <key>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnIfNotAdmin(cmd.ErrOrStderr())
			out := cmd.OutOrStdout()
			outcomes := make([]actionOutcome, 0, len(args))
			var errs []error
			for _, key := range args {
				r, err := c.app.Apply(cmd.Context(), key, action)
				o := actionOutcome{Key: key, Enabled: r.Enabled}
				if err != nil {
					errs = append(errs, err)
					o.Error = err.Error()
				}
				outcomes = append(outcomes, o)
				if c.jsonOut {
					continue
				}
				if err != nil {
					fmt.Fprintf(out, "  %s %s: %v\n", failMark, key, err)
					continue
				}
				fmt.Fprintf(out, "  %s %s\n", onOff(r.Enabled), key)
			}
			if c.jsonOut {
				if err := c.emit(out, outcomes); err != nil {
					return err
				}
			}
			return errors.Join(errs...)
		},
	}
}

func warnIfNotAdmin(w io.Writer) {
	if !system.IsAdmin() {
		color.New(color.FgHiYellow).Fprintln(w, "  ⚠ Not running as administrator: machine-wide tweaks will fail.")
	}
}

func (c *cli) analyzeCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Check every tweak and save the snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := c.app.Analyze(cmd.Context(), force)
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), snap)
			}
			sum := snap.Summary()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  Snapshot %s (%s)\n", snap.ID, snap.TakenAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintf(out, "  %d tweaks: %d enabled, %d disabled, %d unreadable\n", sum.Total, sum.Enabled, sum.Disabled, sum.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "analyze even when the cached snapshot is fresh")
	return cmd
}

func (c *cli) presetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "List or apply tweak presets",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			presets := preset.All()
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), presets)
			}
			for _, p := range presets {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-12s %-20s %2d tweaks  %s\n", p.ID, p.Name, len(p.Tweaks), p.Description)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "apply <id>",
		Short: "Enable every tweak of a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			warnIfNotAdmin(cmd.ErrOrStderr())
			report, err := c.app.ApplyPreset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if c.jsonOut {
				if err := c.emit(cmd.OutOrStdout(), report); err != nil {
					return err
				}
				return report.Err()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  %s %d applied, %d already on\n", okMark, len(report.Applied), len(report.Skipped))
			for _, key := range report.FailedKeys() {
				fmt.Fprintf(out, "  %s %s: %v\n", failMark, key, report.Failed[key])
			}
			return report.Err()
		},
	})
	return cmd
}

func (c *cli) restoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore",
		Short: "Put back every original value recorded before a tweak changed it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Restore(cmd.Context()); err != nil {
				return err
			}
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), map[string]bool{"restored": true})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s original settings restored\n", okMark)
			return nil
		},
	}
}

// ============================================================
// System
// ============================================================

func (c *cli) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show PC information and a health score",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := c.app.System.Info(cmd.Context())
			if err != nil {
				return err
			}
			top, err := c.app.System.TopProcesses(cmd.Context(), topProcesses)
			if err != nil {
				c.app.Log.Warn("process list unavailable", zap.Error(err))
			}
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), struct {
					*system.Info
					TopProcesses []system.Process `json:"topProcesses"`
				}{info, top})
			}
			printInfo(cmd.OutOrStdout(), info)
			printProcesses(cmd.OutOrStdout(), top)
			return nil
		},
	}
}

// topProcesses is how many memory consumers info shows.
const topProcesses = 5

func printProcesses(out io.Writer, procs []system.Process) {
	if len(procs) == 0 {
		return
	}
	fmt.Fprintln(out, "\n  Top Memory Consumers:")
	for i, p := range procs {
		fmt.Fprintf(out, "    %d. %s - %s (%.1f%%)\n", i+1, p.Name, formatBytesHuman(p.Memory), p.Percent)
	}
}

func printInfo(out io.Writer, info *system.Info) {
	heading.Fprintln(out, "  ═══ System Information ═══")
	fmt.Fprintf(out, "  OS:          %s\n", info.Platform)
	fmt.Fprintf(out, "  Hostname:    %s\n", info.Hostname)
	fmt.Fprintf(out, "  CPU:         %s (%dC/%dT)\n", info.CPUModel, info.CPUCores, info.CPUThreads)
	fmt.Fprintf(out, "  CPU Usage:   %.1f%%\n", info.CPUUsage)
	fmt.Fprintf(out, "  RAM:         %s / %s (%.1f%%)\n", formatBytesHuman(info.RAMUsed), formatBytesHuman(info.RAMTotal), info.RAMUsage)
	for _, m := range info.RAMModules {
		fmt.Fprintf(out, "               %s %s %s %d MHz (%s)\n", m.Slot, m.Manufacturer, formatBytesHuman(m.Capacity), m.Speed, m.FormFactor)
	}
	for _, g := range info.GPUs {
		fmt.Fprintf(out, "  GPU:         %s, %s VRAM (Driver: %s)\n", g.Name, formatBytesHuman(g.VRAM), g.Driver)
	}
	fmt.Fprintf(out, "  Uptime:      %s\n", info.Uptime)

	scoreColor := color.New(color.FgHiGreen)
	if info.HealthScore < 60 {
		scoreColor = color.New(color.FgHiYellow)
	}
	if info.HealthScore < 40 {
		scoreColor = color.New(color.FgHiRed)
	}
	scoreColor.Fprintf(out, "  Health:      %d/100\n", info.HealthScore)

	fmt.Fprintln(out, "\n  Disks:")
	for _, d := range info.Disks {
		fmt.Fprintf(out, "    %s  %s free / %s total (%.0f%% used)\n",
			d.Drive, formatBytesHuman(d.Free), formatBytesHuman(d.Total), d.UsagePercent)
	}
	for _, d := range info.PhysDisks {
		fmt.Fprintf(out, "    %s  %s %s %s\n", d.Model, formatBytesHuman(d.Size), d.MediaType, d.Interface)
	}
}

func (c *cli) startupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "startup",
		Short: "Manage programs that run at sign-in",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List startup programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := c.app.Startup.List(cmd.Context())
			if err != nil {
				return err
			}
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), items)
			}
			printStartup(cmd.OutOrStdout(), items)
			return nil
		},
	})
	for _, on := range []bool{true, false} {
		verb := "disable"
		if on {
			verb = "enable"
		}
		cmd.AddCommand(&cobra.Command{
			Use:   verb + " <name>",
			Short: strings.ToUpper(verb[:1]) + verb[1:] + " a startup program",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				item, err := c.app.Startup.Find(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if on {
					err = c.app.Startup.Enable(cmd.Context(), item)
				} else {
					err = c.app.Startup.Disable(cmd.Context(), item)
				}
				if err != nil {
					return err
				}
				item.Enabled = on
				if c.jsonOut {
					return c.emit(cmd.OutOrStdout(), item)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s %s\n", onOff(on), item.Name)
				return nil
			},
		})
	}
	return cmd
}

func printStartup(out io.Writer, items []startup.Item) {
	for _, it := range items {
		mark := offMark
		if it.Enabled {
			mark = okMark
		}
		fmt.Fprintf(out, "  %s %-32s %-8s %-15s %s\n", mark, it.Name, it.Impact, it.Location, it.Publisher)
	}
}

func (c *cli) driversCmd() *cobra.Command {
	var f driver.Filter
	cmd := &cobra.Command{
		Use:   "drivers",
		Short: "List installed drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			drivers, err := c.app.Drivers.List(cmd.Context())
			if err != nil {
				return err
			}
			drivers = f.Apply(drivers)
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), drivers)
			}
			for _, d := range drivers {
				fmt.Fprintf(cmd.OutOrStdout(), "  %-20s %-8s %-8s %-12s %s\n", d.Name, d.State, d.StartMode, d.Type, d.DisplayName)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&f.State, "state", "", "only drivers in this state (running, stopped)")
	cmd.Flags().StringVar(&f.Type, "type", "", "only drivers of this type (kernel, \"file system\")")

	cmd.AddCommand(&cobra.Command{
		Use:   "set-start <name> <boot|system|auto|demand|disabled>",
		Short: "Change how a driver starts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := service.ParseStartType(args[1])
			if err != nil {
				return err
			}
			if err := c.app.Drivers.SetStartMode(cmd.Context(), args[0], st); err != nil {
				return err
			}
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), struct {
					Name  string            `json:"name"`
					Start service.StartType `json:"start"`
				}{args[0], st})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s %s start=%s\n", okMark, args[0], st)
			return nil
		},
	})
	return cmd
}

func (c *cli) downloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download helper tools and third-party software",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List downloadable tools and software",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			assets, software := c.app.Downloads.AssetList(), c.app.Downloads.Software
			if c.jsonOut {
				return c.emit(cmd.OutOrStdout(), map[string]any{"tools": assets, "software": software})
			}
			out := cmd.OutOrStdout()
			heading.Fprintln(out, "  Tools")
			for _, a := range assets {
				fmt.Fprintf(out, "    %-26s %s\n", a.Name, a.URL)
			}
			heading.Fprintln(out, "  Software")
			for _, s := range software {
				fmt.Fprintf(out, "    %-10s %-22s %s\n", s.ID, s.Name, s.Category)
			}
			return nil
		},
	}, &cobra.Command{
		Use:   "tool <name>",
		Short: "Download a helper tool into the tools directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := c.app.Downloads.Fetch(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printDownload(cmd.OutOrStdout(), args[0], path)
		},
	})

	var dir string
	software := &cobra.Command{
		Use:   "software <id>",
		Short: "Download a third-party installer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target := dir
			if target == "" {
				target = c.app.Config.DownloadsDir
			}
			path, err := c.app.Downloads.FetchSoftware(cmd.Context(), args[0], target)
			if err != nil {
				return err
			}
			return c.printDownload(cmd.OutOrStdout(), args[0], path)
		},
	}
	software.Flags().StringVar(&dir, "dir", "", "target directory (default downloads_dir)")
	cmd.AddCommand(software)
	return cmd
}

func (c *cli) printDownload(out io.Writer, name, path string) error {
	if c.jsonOut {
		return c.emit(out, map[string]string{"name": name, "path": path})
	}
	fmt.Fprintf(out, "  %s %s\n", okMark, path)
	return nil
}

func (c *cli) pluginsCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Show where every tweak came from and which files failed to load",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := c.app.Tweaks()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			show := func(res *plugin.Result) {
				if c.jsonOut {
					_ = c.emit(out, pluginReport(c.app.Config.PluginDir, res))
					return
				}
				printPlugins(out, c.app.Config.PluginDir, res)
			}
			show(res)
			if !watch {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "\n  Watching %s (Ctrl+C to stop)\n", c.app.Config.PluginDir)
			return c.app.Watch(cmd.Context(), func(res *plugin.Result, err error) {
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "  %s reload failed: %v\n", failMark, err)
					return
				}
				show(res)
			})
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "reload when definition files change")
	return cmd
}

type pluginTweak struct {
	Key    string `json:"key"`
	Source string `json:"source"`
}

type pluginProblem struct {
	Source string `json:"source"`
	Key    string `json:"key,omitempty"`
	Error  string `json:"error"`
}

type pluginSummary struct {
	Dir      string          `json:"dir"`
	Tweaks   []pluginTweak   `json:"tweaks"`
	Problems []pluginProblem `json:"problems"`
}

func pluginReport(dir string, res *plugin.Result) pluginSummary {
	s := pluginSummary{Dir: dir, Tweaks: []pluginTweak{}, Problems: []pluginProblem{}}
	for _, t := range res.Tweaks {
		key := t.Metadata().Key
		s.Tweaks = append(s.Tweaks, pluginTweak{Key: key, Source: res.Sources[key]})
	}
	for _, p := range res.Problems {
		pp := pluginProblem{Source: p.Source, Key: p.Key}
		if p.Err != nil {
			pp.Error = p.Err.Error()
		}
		s.Problems = append(s.Problems, pp)
	}
	return s
}

func printPlugins(out io.Writer, dir string, res *plugin.Result) {
	builtin, files := 0, 0
	for _, src := range res.Sources {
		if src == "builtin" {
			builtin++
		} else {
			files++
		}
	}
	fmt.Fprintf(out, "  %d built-in tweaks, %d from %s\n", builtin, files, dir)
	for _, t := range res.Tweaks {
		if meta := t.Metadata(); meta.Source != "builtin" {
			fmt.Fprintf(out, "    %s %-30s %s\n", okMark, meta.Key, meta.Source)
		}
	}
	for _, p := range res.Problems {
		fmt.Fprintf(out, "    %s %v\n", failMark, p)
	}
}

func printChanges(out io.Writer, a *App) {
	changes := a.Overlay.Changes()
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(out, "\n  dry-run: %d registry change(s) not written\n", len(changes))
	for _, ch := range changes {
		switch ch.Op {
		case "set":
			fmt.Fprintf(out, "    set    %s\\%s = %s\n", ch.Key, ch.Name, ch.Value)
		case "delete_value":
			fmt.Fprintf(out, "    delete %s\\%s\n", ch.Key, ch.Name)
		default:
			fmt.Fprintf(out, "    delete %s\n", ch.Key)
		}
	}
}

func formatBytesHuman(bytes uint64) string {
	if bytes == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB", "TB"}
	b := float64(bytes)
	i := 0
	for b >= 1024 && i < len(units)-1 {
		b /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", b, units[i])
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if errors.Is(err, context.Canceled) {
		return 130
	}
	return 1
}

func fatal(err error) {
	color.New(color.FgHiRed).Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitCode(err))
}
