package app

import (
	"encoding/csv"
	"fmt"
	"log"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/sedefinder/finder"
)

const (
	allMunicipalities = "Todos los municipios"
	baseColumnWidth   = 150
	extraColumnWidth  = 120
)

type uiState struct {
	service *finder.Service
	logger  *log.Logger

	w          fyne.Window
	entityIn   *widget.Entry
	categoryIn *widget.Entry
	entityList *widget.List
	catList    *widget.List
	muniSel    *widget.Select
	kpi        *widget.Label
	status     *widget.Label
	resTbl     *widget.Table
	logBind    binding.String
	statusBind binding.String

	entities   *searchWorker
	categories *searchWorker

	mu          sync.Mutex
	entityCards []finder.EntitySuggestion
	entityQuery string
	catCards    []finder.CategorySuggestion
	table       finder.Table

	reloadBtn *widget.Button
	exportBtn *widget.Button
}

func buildUI(a fyne.App, svc *finder.Service, logger *log.Logger, logBind binding.String) *uiState {
	u := &uiState{service: svc, logger: logger, logBind: logBind}
	u.w = a.NewWindow("Buscador de sedes")

	u.statusBind = binding.NewString()
	_ = u.statusBind.Set("Sin datos cargados")
	u.status = widget.NewLabelWithData(u.statusBind)
	u.kpi = widget.NewLabel("")
	u.kpi.Wrapping = fyne.TextWrapWord

	u.entities = newSearchWorker(svc, finder.KindEntity, 0, u.showEntities)
	u.categories = newSearchWorker(svc, finder.KindCategory, 0, u.showCategories)

	u.entityIn = widget.NewEntry()
	u.entityIn.SetPlaceHolder("Sede, institución, código DANE o municipio")
	u.entityIn.OnChanged = func(text string) { u.entities.Submit(text) }

	u.categoryIn = widget.NewEntry()
	u.categoryIn.SetPlaceHolder("Dato: docentes, matrícula, conectividad...")
	u.categoryIn.OnChanged = func(text string) { u.categories.Submit(text) }

	u.entityList = widget.NewList(
		func() int {
			u.mu.Lock()
			defer u.mu.Unlock()
			return len(u.entityCards)
		},
		func() fyne.CanvasObject {
			rt := widget.NewRichText()
			rt.Wrapping = fyne.TextWrapWord
			return rt
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			card, query, ok := u.entityAt(id)
			if !ok {
				return
			}
			rt := obj.(*widget.RichText)
			rt.Segments = entityCardSegments(card, query)
			rt.Refresh()
			u.entityList.SetItemHeight(id, rt.MinSize().Height)
		},
	)
	u.entityList.OnSelected = func(id widget.ListItemID) {
		card, _, ok := u.entityAt(id)
		if !ok {
			return
		}
		if sel := card.Selection(); sel.Len() > 0 {
			u.showSelection(sel, fmt.Sprintf("Sede %s", card.Key))
		}
		u.entityList.UnselectAll()
	}

	u.catList = widget.NewList(
		func() int {
			u.mu.Lock()
			defer u.mu.Unlock()
			return len(u.catCards)
		},
		func() fyne.CanvasObject {
			lbl := widget.NewLabel("")
			lbl.Wrapping = fyne.TextWrapWord
			return lbl
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			card, ok := u.categoryAt(id)
			if !ok {
				return
			}
			lbl := obj.(*widget.Label)
			lbl.SetText(categoryCardText(card))
			u.catList.SetItemHeight(id, lbl.MinSize().Height)
		},
	)
	u.catList.OnSelected = func(id widget.ListItemID) {
		card, ok := u.categoryAt(id)
		if !ok {
			return
		}
		u.showSelection(card.Selection(), fmt.Sprintf("Dato %s", card.BaseLabel))
		u.catList.UnselectAll()
	}

	u.muniSel = widget.NewSelect(nil, func(name string) {
		if name == "" {
			return
		}
		if name == allMunicipalities {
			u.showSelection(finder.Selection{}, "")
			return
		}
		u.showSelection(u.service.FilterByMunicipality(name), "Municipio "+name)
	})
	u.muniSel.PlaceHolder = allMunicipalities

	u.resTbl = widget.NewTable(
		func() (int, int) {
			u.mu.Lock()
			defer u.mu.Unlock()
			cols := len(u.table.Columns)
			if cols == 0 {
				cols = 1
			}
			return len(u.table.Rows) + 1, cols
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("")
		},
		func(id widget.TableCellID, obj fyne.CanvasObject) {
			lbl := obj.(*widget.Label)
			lbl.TextStyle = fyne.TextStyle{Bold: id.Row == 0}
			lbl.SetText(u.cellAt(id.Row, id.Col))
		},
	)

	loadBtn := widget.NewButtonWithIcon("Abrir datos", theme.FolderOpenIcon(), func() { u.onOpenDataset() })
	u.reloadBtn = widget.NewButtonWithIcon("Recargar", theme.ViewRefreshIcon(), func() { u.onReload() })
	u.exportBtn = widget.NewButtonWithIcon("Exportar CSV", theme.DocumentSaveIcon(), func() { u.onExport() })
	clearBtn := widget.NewButtonWithIcon("Limpiar", theme.ContentClearIcon(), func() { u.onClear() })

	logView := widget.NewEntryWithData(logBind)
	logView.MultiLine = true
	logView.Wrapping = fyne.TextWrapWord
	logView.Disable()

	left := container.NewVBox(
		container.NewGridWithColumns(2, loadBtn, u.reloadBtn),
		container.NewGridWithColumns(2, u.exportBtn, clearBtn),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Buscar sede", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.entityIn,
		container.NewGridWrap(fyne.NewSize(380, 300), u.entityList),
		widget.NewLabelWithStyle("Buscar dato", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.categoryIn,
		container.NewGridWrap(fyne.NewSize(380, 160), u.catList),
		widget.NewLabelWithStyle("Municipio", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.muniSel,
		widget.NewSeparator(),
		u.status,
		u.kpi,
	)
	right := container.NewVSplit(u.resTbl, logView)
	right.Offset = 0.8
	split := container.NewHSplit(container.NewVScroll(left), right)
	split.Offset = 0.32

	u.w.SetContent(split)
	u.w.Resize(fyne.NewSize(1280, 800))
	u.refreshDataset()
	return u
}

func (u *uiState) entityAt(id int) (finder.EntitySuggestion, string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if id < 0 || id >= len(u.entityCards) {
		return finder.EntitySuggestion{}, "", false
	}
	return u.entityCards[id], u.entityQuery, true
}

func (u *uiState) categoryAt(id int) (finder.CategorySuggestion, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if id < 0 || id >= len(u.catCards) {
		return finder.CategorySuggestion{}, false
	}
	return u.catCards[id], true
}

// cellAt returns the text of a table cell; row 0 holds the column titles.
func (u *uiState) cellAt(row, col int) string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return tableCell(u.table, row, col)
}

func (u *uiState) showEntities(resp finder.Response) {
	fyne.Do(func() {
		u.mu.Lock()
		u.entityCards = resp.Entities
		u.entityQuery = resp.Query
		u.mu.Unlock()
		u.entityList.Refresh()
	})
}

func (u *uiState) showCategories(resp finder.Response) {
	fyne.Do(func() {
		u.mu.Lock()
		u.catCards = resp.Categories
		u.mu.Unlock()
		u.catList.Refresh()
	})
}

// showSelection fills the table with sel. With an empty title the KPI panel
// shows the whole dataset instead of the selection.
func (u *uiState) showSelection(sel finder.Selection, title string) {
	tbl := sel.Table()
	u.mu.Lock()
	u.table = tbl
	u.mu.Unlock()

	u.resTbl.UnselectAll()
	for i := range tbl.Columns {
		width := float32(baseColumnWidth)
		if i > len(finder.BaseColumns) {
			width = extraColumnWidth
		}
		u.resTbl.SetColumnWidth(i, width)
	}
	u.resTbl.ScrollToTop()
	u.resTbl.Refresh()

	if title == "" {
		u.kpi.SetText(kpiText(u.service.Summary()))
		return
	}
	u.kpi.SetText(title + "\n" + kpiText(finder.Summarize(sel.Records)))
}

// refreshDataset updates everything that depends on the loaded dataset.
func (u *uiState) refreshDataset() {
	if !u.service.Loaded() {
		_ = u.statusBind.Set("Sin datos cargados")
		u.muniSel.Options = nil
		u.muniSel.ClearSelected()
		u.kpi.SetText("")
		u.reloadBtn.Disable()
		u.exportBtn.Disable()
		u.showSelection(finder.Selection{}, "")
		return
	}
	idx := u.service.Index()
	_ = u.statusBind.Set(fmt.Sprintf("%s · %d filas · versión %s",
		filepath.Base(u.service.Source()), idx.Len(), u.service.Version()))
	u.muniSel.Options = append([]string{allMunicipalities}, u.service.Municipalities()...)
	u.muniSel.ClearSelected()
	u.muniSel.Refresh()
	u.reloadBtn.Enable()
	u.exportBtn.Enable()
	u.showSelection(finder.Selection{}, "")
	u.entities.Refresh(u.entityIn.Text)
	u.categories.Refresh(u.categoryIn.Text)
}

func (u *uiState) loadPath(path string) {
	_ = u.statusBind.Set("Cargando...")
	go func() {
		err := u.service.LoadFile(path)
		fyne.Do(func() {
			if err != nil {
				u.logger.Printf("Load failed: %v", err)
				dialog.ShowError(err, u.w)
			}
			u.refreshDataset()
		})
	}()
}

func (u *uiState) onOpenDataset() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil || rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		u.loadPath(path)
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".csv", ".tsv", ".txt", ".xlsx", ".xlsm"}))
	fd.Show()
}

func (u *uiState) onReload() {
	go func() {
		err := u.service.Reload()
		fyne.Do(func() {
			if err != nil {
				dialog.ShowError(err, u.w)
			}
			u.refreshDataset()
		})
	}()
}

func (u *uiState) onClear() {
	u.service.Clear()
	u.entityIn.SetText("")
	u.categoryIn.SetText("")
	u.refreshDataset()
}

func (u *uiState) onExport() {
	u.mu.Lock()
	tbl := u.table
	u.mu.Unlock()
	if len(tbl.Rows) == 0 {
		dialog.ShowInformation("Exportar", "No hay filas para exportar", u.w)
		return
	}
	fd := dialog.NewFileSave(func(uc fyne.URIWriteCloser, err error) {
		if err != nil || uc == nil {
			return
		}
		defer uc.Close()
		if err := writeTableCSV(csv.NewWriter(uc), tbl); err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		u.logger.Printf("Exported %d rows to %s", len(tbl.Rows), uc.URI().Name())
	}, u.w)
	fd.SetFileName("sedes.csv")
	fd.Show()
}

func tableCell(tbl finder.Table, row, col int) string {
	if row == 0 {
		if col < len(tbl.Columns) {
			return tbl.Columns[col]
		}
		return ""
	}
	row--
	if row >= len(tbl.Rows) || col >= len(tbl.Rows[row]) {
		return ""
	}
	return tbl.Rows[row][col]
}

func writeTableCSV(w *csv.Writer, tbl finder.Table) error {
	if err := w.Write(tbl.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range tbl.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func (u *uiState) onWatchReload(err error) {
	if err != nil {
		return
	}
	fyne.Do(u.refreshDataset)
}
