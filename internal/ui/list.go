package ui

import (
	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/moody/internal/search"
)

var _ list.Item = resultItem{}

const (
	freshMark    = "✦ "
	favoriteMark = " ★"
)

// resultItem wraps [search.Result] to implement [list.Item].
type resultItem struct {
	result   search.Result
	fresh    bool
	favorite bool
}

func (i resultItem) FilterValue() string { return i.result.Name }

func (i resultItem) Title() string {
	title := i.result.Name
	if i.fresh {
		title = freshMark + title
	}
	if i.favorite {
		title += favoriteMark
	}
	return title
}

func (i resultItem) Description() string {
	desc := i.result.Text
	if i.result.Online {
		if desc != "" {
			desc += " • "
		}
		desc += "online"
	}
	return desc
}
