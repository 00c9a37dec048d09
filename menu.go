package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"asxhub/internal/preset"
	"asxhub/internal/tweak"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
)

func runMenu(ctx context.Context, a *App) error {
	green := color.New(color.FgHiGreen, color.Bold)
	cyan := color.New(color.FgHiCyan)

	green.Println("\n   █████╗ ███████╗██╗  ██╗    ██╗  ██╗██╗   ██╗██████╗ ")
	green.Println("  ██╔══██╗██╔════╝╚██╗██╔╝    ██║  ██║██║   ██║██╔══██╗")
	green.Println("  ███████║███████╗ ╚███╔╝     ███████║██║   ██║██████╔╝")
	green.Println("  ██╔══██║╚════██║ ██╔██╗     ██╔══██║██║   ██║██╔══██╗")
	green.Println("  ██║  ██║███████║██╔╝ ██╗    ██║  ██║╚██████╔╝██████╔╝")
	green.Println("  ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝    ╚═╝  ╚═╝ ╚═════╝ ╚═════╝ ")
	fmt.Println()
	cyan.Printf("  Windows Tweaks & System Tools v%s\n", Version)
	fmt.Println("  ─────────────────────────────────────────────")
	fmt.Println()
	warnIfNotAdmin(os.Stdout)

	for ctx.Err() == nil {
		prompt := promptui.Select{
			Label: "What would you like to do?",
			Items: []string{
				"🖥️  System Info",
				"🔍 Analyze Tweaks",
				"🔧 Toggle a Tweak",
				"📦 Apply Preset",
				"🚀 Startup Manager",
				"↩️  Restore Original Settings",
				"❌ Exit",
			},
			Size: 7,
		}

		i, _, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}
		fmt.Println()

		switch i {
		case 0:
			err = menuSystemInfo(ctx, a)
		case 1:
			err = menuAnalyze(ctx, a)
		case 2:
			err = menuToggle(ctx, a)
		case 3:
			err = menuPreset(ctx, a)
		case 4:
			err = menuStartup(ctx, a)
		case 5:
			err = menuRestore(ctx, a)
		case 6:
			green.Println("  Thanks for using ASX Hub!")
			return nil
		}
		if err != nil && !errors.Is(err, promptui.ErrInterrupt) && !errors.Is(err, promptui.ErrAbort) {
			color.Red("  Error: %v", err)
		}
		fmt.Println()
	}
	return ctx.Err()
}

func menuSystemInfo(ctx context.Context, a *App) error {
	color.New(color.FgHiYellow).Println("  Collecting system information...")
	info, err := a.System.Info(ctx)
	if err != nil {
		return err
	}
	printInfo(os.Stdout, info)

	top, err := a.System.TopProcesses(ctx, topProcesses)
	if err == nil {
		printProcesses(os.Stdout, top)
	}
	heavy, err := a.System.HeavyProcesses(ctx)
	if err == nil && len(heavy) > 0 {
		color.New(color.FgHiYellow).Println("\n  Processes above 500 MB:")
		for _, p := range heavy {
			fmt.Printf("    • %s (PID %d) - %s\n", p.Name, p.PID, formatBytesHuman(p.Memory))
		}
	}
	return nil
}

func menuAnalyze(ctx context.Context, a *App) error {
	color.New(color.FgHiYellow).Println("  Checking every tweak...")
	snap, err := a.Analyze(ctx, true)
	if err != nil {
		return err
	}
	sum := snap.Summary()
	fmt.Printf("  %s %d enabled, %d disabled, %d unreadable\n", okMark, sum.Enabled, sum.Disabled, sum.Failed)
	return nil
}

func menuToggle(ctx context.Context, a *App) error {
	cats := make([]string, len(tweak.Categories))
	for i, c := range tweak.Categories {
		cats[i] = strings.ToUpper(string(c[:1])) + string(c[1:])
	}
	i, _, err := (&promptui.Select{Label: "Category", Items: cats, Size: len(cats)}).Run()
	if err != nil {
		return err
	}

	tweaks, err := a.Select(tweak.Categories[i])
	if err != nil {
		return err
	}
	if len(tweaks) == 0 {
		fmt.Println("  No tweaks in this category.")
		return nil
	}

	snap, err := a.Analyze(ctx, false)
	if err != nil {
		return err
	}
	items := make([]string, len(tweaks))
	for j, t := range tweaks {
		meta := t.Metadata()
		mark := offMark
		if r, ok := snap.Lookup(meta.Key); ok {
			switch {
			case r.Failed():
				mark = failMark
			case r.Enabled:
				mark = okMark
			}
		}
		items[j] = fmt.Sprintf("%s %s", mark, meta.Title)
	}

	j, _, err := (&promptui.Select{Label: "Tweak", Items: items, Size: 12}).Run()
	if err != nil {
		return err
	}
	meta := tweaks[j].Metadata()
	fmt.Printf("  %s\n", meta.Description)
	r, err := a.Apply(ctx, meta.Key, Toggle)
	if err != nil {
		return err
	}
	fmt.Printf("  %s %s\n", onOff(r.Enabled), meta.Title)
	if meta.RequiresRestart {
		color.New(color.FgHiYellow).Println("  A restart is needed for this change to take effect.")
	}
	return nil
}

func menuPreset(ctx context.Context, a *App) error {
	presets := preset.All()
	items := make([]string, len(presets))
	for i, p := range presets {
		items[i] = fmt.Sprintf("%s - %s", p.Name, p.Description)
	}
	i, _, err := (&promptui.Select{Label: "Preset", Items: items, Size: len(items)}).Run()
	if err != nil {
		return err
	}

	p := presets[i]
	if _, err := (&promptui.Prompt{Label: fmt.Sprintf("Apply %d tweaks", len(p.Tweaks)), IsConfirm: true}).Run(); err != nil {
		return nil
	}
	color.New(color.FgHiYellow).Printf("  Applying %s...\n", p.Name)
	report, err := a.ApplyPreset(ctx, p.ID)
	if err != nil {
		return err
	}
	fmt.Printf("  %s %d applied, %d already on\n", okMark, len(report.Applied), len(report.Skipped))
	for _, key := range report.FailedKeys() {
		fmt.Printf("  %s %s: %v\n", failMark, key, report.Failed[key])
	}
	return nil
}

func menuStartup(ctx context.Context, a *App) error {
	items, err := a.Startup.List(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("  No startup programs found.")
		return nil
	}

	labels := make([]string, len(items)+1)
	for i, it := range items {
		mark := offMark
		if it.Enabled {
			mark = okMark
		}
		labels[i] = fmt.Sprintf("%s %-30s [%s impact]", mark, it.Name, it.Impact)
	}
	labels[len(items)] = "Back"

	i, _, err := (&promptui.Select{Label: "Startup Programs", Items: labels, Size: 12}).Run()
	if err != nil || i == len(items) {
		return err
	}

	item := items[i]
	if item.Enabled {
		err = a.Startup.Disable(ctx, item)
	} else {
		err = a.Startup.Enable(ctx, item)
	}
	if err != nil {
		return err
	}
	fmt.Printf("  %s %s\n", onOff(!item.Enabled), item.Name)
	return nil
}

func menuRestore(ctx context.Context, a *App) error {
	confirm := promptui.Prompt{Label: "Restore every setting ASX Hub changed", IsConfirm: true}
	if _, err := confirm.Run(); err != nil {
		return nil
	}
	if err := a.Restore(ctx); err != nil {
		return err
	}
	color.New(color.FgHiGreen).Println("  ✓ All restored to original values")
	return nil
}
