// Package application is the terminal front end: a menu of the registered
// grids and a grid screen that drives a core.Service from the keyboard.
package application

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/JonMunkholm/gridview/internal/core"
)

/* ----------------------------------------
	MENU TREE
---------------------------------------- */

type MenuItem struct {
	Label   string
	Submenu *Menu
	Action  func() tea.Cmd
}

type Menu struct {
	Title  string
	Items  []MenuItem
	Parent *Menu
}

func linkParents(menu *Menu, parent *Menu) {
	menu.Parent = parent

	for i := range menu.Items {
		item := &menu.Items[i]

		if item.Label == "Back" {
			item.Submenu = parent
			continue
		}

		if item.Submenu != nil {
			linkParents(item.Submenu, menu)
		}
	}
}

/* ----------------------------------------
	MENU TREE DEFINITION
---------------------------------------- */

// buildMenuTree lists every registered grid under its group.
func buildMenuTree(m *Model) *Menu {
	root := &Menu{Title: "Grids"}

	for _, group := range core.Groups() {
		sub := &Menu{Title: group}
		for _, def := range core.ByGroup(group) {
			key := def.Info.Key
			sub.Items = append(sub.Items, MenuItem{
				Label:  def.Info.Label,
				Action: func() tea.Cmd { return m.openGrid(key) },
			})
		}
		sub.Items = append(sub.Items, MenuItem{Label: "Back"})
		root.Items = append(root.Items, MenuItem{Label: group + " ->", Submenu: sub})
	}

	root.Items = append(root.Items, MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }})

	linkParents(root, nil)

	return root
}
