// Skyframe frame-admin
// Terminal admin panel for editing the slideshow photo list (captions,
// locations, ordering) and the display settings.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/unklstewy/skyframe/internal/db"
	"github.com/unklstewy/skyframe/pkg/config"
)

var configPath = flag.String("config", "configs/config.json", "Path to configuration file")

// adminApp holds the tview application and its widgets.
type adminApp struct {
	app    *tview.Application
	pages  *tview.Pages
	table  *tview.Table
	status *tview.TextView

	repo   *db.PhotoRepository
	photos []db.PhotoRecord
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	database, err := db.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	a := &adminApp{
		app:  tview.NewApplication(),
		repo: db.NewPhotoRepository(database),
	}

	a.build()

	if err := a.reload(); err != nil {
		log.Fatalf("Failed to load photos: %v", err)
	}

	if err := a.app.SetRoot(a.pages, true).Run(); err != nil {
		log.Fatalf("Admin panel failed: %v", err)
	}
}

// build assembles the widget tree: a photo table, a status bar, and modal
// pages for editing.
func (a *adminApp) build() {
	a.table = tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	a.table.SetBorder(true).SetTitle(" Photos (e: edit, d: delete, s: settings, q: quit) ")

	a.status = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.table, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.pages = tview.NewPages().
		AddPage("main", layout, true, true)

	a.table.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Rune() {
		case 'q':
			a.app.Stop()
			return nil
		case 'e':
			a.editSelected()
			return nil
		case 'd':
			a.deleteSelected()
			return nil
		case 's':
			a.editSettings()
			return nil
		}
		return event
	})
}

// reload refetches the photo list and redraws the table.
func (a *adminApp) reload() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var photos []db.PhotoRecord
	err := db.WithRetry(func() error {
		var listErr error
		photos, listErr = a.repo.List(ctx)
		return listErr
	}, 2)
	if err != nil {
		return err
	}
	a.photos = photos

	a.table.Clear()
	headers := []string{"ID", "Source", "Caption", "Location", "Order"}
	for col, h := range headers {
		a.table.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false))
	}

	for i, p := range photos {
		a.table.SetCell(i+1, 0, tview.NewTableCell(p.ID))
		a.table.SetCell(i+1, 1, tview.NewTableCell(p.Src))
		a.table.SetCell(i+1, 2, tview.NewTableCell(p.Caption))
		a.table.SetCell(i+1, 3, tview.NewTableCell(p.Location))
		a.table.SetCell(i+1, 4, tview.NewTableCell(strconv.Itoa(p.SortOrder)))
	}

	a.setStatus(fmt.Sprintf("%d photos", len(photos)))
	return nil
}

func (a *adminApp) selectedPhoto() *db.PhotoRecord {
	row, _ := a.table.GetSelection()
	idx := row - 1 // header row
	if idx < 0 || idx >= len(a.photos) {
		return nil
	}
	return &a.photos[idx]
}

// editSelected opens a form pre-filled with the selected photo's metadata.
func (a *adminApp) editSelected() {
	photo := a.selectedPhoto()
	if photo == nil {
		return
	}

	edited := *photo

	form := tview.NewForm().
		AddInputField("Source", edited.Src, 60, nil, func(text string) { edited.Src = text }).
		AddInputField("Caption", edited.Caption, 60, nil, func(text string) { edited.Caption = text }).
		AddInputField("Location", edited.Location, 60, nil, func(text string) { edited.Location = text }).
		AddInputField("Order", strconv.Itoa(edited.SortOrder), 6, nil, func(text string) {
			if n, err := strconv.Atoi(text); err == nil {
				edited.SortOrder = n
			}
		})

	form.AddButton("Save", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.repo.Upsert(ctx, edited); err != nil {
			a.setStatus(fmt.Sprintf("[red]save failed: %v", err))
		} else if err := a.reload(); err != nil {
			a.setStatus(fmt.Sprintf("[red]reload failed: %v", err))
		}
		a.pages.RemovePage("edit")
	})
	form.AddButton("Cancel", func() {
		a.pages.RemovePage("edit")
	})
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Edit %s ", photo.ID))

	a.pages.AddPage("edit", modal(form, 70, 13), true, true)
}

// deleteSelected asks for confirmation before removing a photo's metadata.
func (a *adminApp) deleteSelected() {
	photo := a.selectedPhoto()
	if photo == nil {
		return
	}
	id := photo.ID

	confirm := tview.NewModal().
		SetText(fmt.Sprintf("Delete photo %s?", id)).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(_ int, label string) {
			if label == "Delete" {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := a.repo.Delete(ctx, id); err != nil {
					a.setStatus(fmt.Sprintf("[red]delete failed: %v", err))
				} else if err := a.reload(); err != nil {
					a.setStatus(fmt.Sprintf("[red]reload failed: %v", err))
				}
			}
			a.pages.RemovePage("confirm")
		})

	a.pages.AddPage("confirm", confirm, true, true)
}

// editSettings opens the single-row display settings form.
func (a *adminApp) editSettings() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	settings, err := a.repo.GetSettings(ctx)
	if err != nil {
		a.setStatus(fmt.Sprintf("[red]settings load failed: %v", err))
		return
	}
	edited := *settings

	fitModes := []string{"cover", "contain"}
	fitIndex := 0
	if edited.FitMode == "contain" {
		fitIndex = 1
	}

	form := tview.NewForm().
		AddInputField("Interval (ms)", strconv.Itoa(edited.IntervalMs), 8, nil, func(text string) {
			if n, err := strconv.Atoi(text); err == nil {
				edited.IntervalMs = n
			}
		}).
		AddCheckbox("Shuffle", edited.Shuffle, func(checked bool) { edited.Shuffle = checked }).
		AddDropDown("Fit mode", fitModes, fitIndex, func(option string, _ int) { edited.FitMode = option })

	form.AddButton("Save", func() {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := a.repo.UpdateSettings(saveCtx, edited); err != nil {
			a.setStatus(fmt.Sprintf("[red]settings save failed: %v", err))
		} else {
			a.setStatus("settings saved")
		}
		a.pages.RemovePage("settings")
	})
	form.AddButton("Cancel", func() {
		a.pages.RemovePage("settings")
	})
	form.SetBorder(true).SetTitle(" Display settings ")

	a.pages.AddPage("settings", modal(form, 50, 11), true, true)
}

func (a *adminApp) setStatus(msg string) {
	a.status.SetText(msg)
}

// modal centers a primitive inside the page.
func modal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}
