// Pipeline statistics card shown under the viewfinder
package gui

import (
	"fmt"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"animal-vision-camera/internal/metrics"
)

// StatsPanel displays pipeline counters
type StatsPanel struct {
	vbox    *fyne.Container
	card    *widget.Card
	visible bool

	frames  *widget.Label
	dropped *widget.Label
	timing  *widget.Label
	overlay *widget.Label
}

// NewStatsPanel creates a hidden panel
func NewStatsPanel() *StatsPanel {
	panel := &StatsPanel{}
	panel.initializeUI()
	return panel
}

func (sp *StatsPanel) initializeUI() {
	sp.frames = widget.NewLabel("")
	sp.dropped = widget.NewLabel("")
	sp.timing = widget.NewLabel("")
	sp.overlay = widget.NewLabel("")

	sp.card = widget.NewCard("Pipeline", "", container.NewGridWithColumns(2,
		sp.frames, sp.dropped, sp.timing, sp.overlay,
	))
	sp.vbox = container.NewVBox()
	sp.Clear()
}

func (sp *StatsPanel) GetContainer() fyne.CanvasObject {
	return sp.vbox
}

// Visible reports whether the card is shown.
func (sp *StatsPanel) Visible() bool {
	return sp.visible
}

// Toggle shows or hides the card.
func (sp *StatsPanel) Toggle() {
	sp.visible = !sp.visible
	sp.vbox.RemoveAll()
	if sp.visible {
		sp.vbox.Add(sp.card)
	}
}

func (sp *StatsPanel) UpdateStats(s metrics.Snapshot) {
	sp.frames.SetText(fmt.Sprintf("Frames: %d in / %d filtered", s.FramesReceived, s.FramesProcessed))
	sp.dropped.SetText(fmt.Sprintf("Dropped: %d (%.1f%%)", s.FramesDropped, s.DropRate()*100))
	sp.timing.SetText(fmt.Sprintf("Filter time: %s avg", s.AvgProcessTime.Round(time.Microsecond)))
	sp.overlay.SetText(fmt.Sprintf("Overlays: %d, stale %d", s.OverlaysRendered, s.StaleResults))
}

func (sp *StatsPanel) Clear() {
	sp.UpdateStats(metrics.Snapshot{})
}
