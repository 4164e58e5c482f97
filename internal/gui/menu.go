// Menu handler for camera actions
package gui

import (
	"fyne.io/fyne/v2"
)

// MenuHandler builds the main menu from the application's actions.
type MenuHandler struct {
	window fyne.Window

	onOpenPhotos  func()
	onTakePhoto   func()
	onCycleFilter func()
	onToggleStats func()
}

func NewMenuHandler(window fyne.Window) *MenuHandler {
	return &MenuHandler{window: window}
}

func (mh *MenuHandler) SetCallbacks(openPhotos, takePhoto, cycleFilter, toggleStats func()) {
	mh.onOpenPhotos = openPhotos
	mh.onTakePhoto = takePhoto
	mh.onCycleFilter = cycleFilter
	mh.onToggleStats = toggleStats
}

func (mh *MenuHandler) GetMainMenu() *fyne.MainMenu {
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Take Photo", mh.call(&mh.onTakePhoto)),
		fyne.NewMenuItem("Open Photos", mh.call(&mh.onOpenPhotos)),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Exit", func() {
			mh.window.Close()
		}),
	)

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Next Filter", mh.call(&mh.onCycleFilter)),
		fyne.NewMenuItem("Pipeline Statistics", mh.call(&mh.onToggleStats)),
	)

	return fyne.NewMainMenu(fileMenu, viewMenu)
}

// call resolves the callback when the item is activated, so callbacks may
// be set after the menu is built.
func (mh *MenuHandler) call(fn *func()) func() {
	return func() {
		if *fn != nil {
			(*fn)()
		}
	}
}
