package main

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/buckleypaul/sigflash/internal/app"
	"github.com/buckleypaul/sigflash/internal/config"
	"github.com/buckleypaul/sigflash/internal/esptool"
	"github.com/buckleypaul/sigflash/internal/pages"
	"github.com/buckleypaul/sigflash/internal/serial"
	"github.com/buckleypaul/sigflash/internal/session"
	"github.com/buckleypaul/sigflash/internal/store"
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load(cwd)
	st := store.New(filepath.Join(cwd, ".sigflash"))

	runner := esptool.NewExecRunner(cfg.EsptoolPath)
	client := serial.NewClient(cfg.SerialBaudRate)
	ctrl := session.New(&cfg, cwd, runner, client, nil, st)

	pageMap := map[app.PageID]app.Page{
		app.FlashPage:     pages.NewFlashPage(ctrl),
		app.ConfigurePage: pages.NewConfigurePage(ctrl),
		app.MonitorPage:   pages.NewMonitorPage(ctrl, cfg.SerialBaudRate),
		app.HistoryPage:   pages.NewHistoryPage(st),
		app.SettingsPage:  pages.NewSettingsPage(&cfg, ctrl, cwd),
	}

	watcher := serial.NewWatcher()
	watcher.Start()
	defer watcher.Stop()

	model := app.New(pageMap, ctrl, watcher.Changes())

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	ctrl.SetSender(p)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
