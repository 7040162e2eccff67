// Package listview provides the scrolling list and check menu used by the
// mapgrid terminal views.
//
// VirtualListModel renders only the rows inside its viewport, so the map's
// feature list stays responsive with thousands of features. Menu builds on it
// to show a set of options with a check mark for every selected one; the grid
// filter menus and the column toggle menu are Menus.
package listview
