package palette

import (
	"sort"
	"strings"
)

// CommandType identifies the kind of entry in the command palette.
type CommandType string

const (
	CommandRoute   CommandType = "route"
	CommandProject CommandType = "project"
	CommandBlog    CommandType = "blog"
	CommandAction  CommandType = "action"
)

// Item is a searchable content record: a project, blog post, or page.
type Item struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
}

// Command is a palette entry. The executable action lives client-side;
// the API carries the navigation target instead. Commands have no slug.
type Command struct {
	ID          string      `json:"id"`
	Type        CommandType `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Keywords    []string    `json:"keywords,omitempty"`
	Shortcut    string      `json:"shortcut,omitempty"`
	Href        string      `json:"href,omitempty"`
}

// SearchItems filters and ranks items against query. A blank query
// returns the input unchanged. Ties keep their filtered order.
func SearchItems(query string, items []Item) []Item {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}

	type scored struct {
		item  Item
		score int
	}
	var hits []scored
	for _, item := range items {
		fields := itemFields(item)
		if !matchesAny(query, fields) {
			continue
		}
		hits = append(hits, scored{item: item, score: bestScore(query, fields)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]Item, len(hits))
	for i, h := range hits {
		out[i] = h.item
	}
	return out
}

// SearchCommands is SearchItems for palette commands. Same contract;
// the consulted field set just lacks a slug.
func SearchCommands(query string, commands []Command) []Command {
	query = strings.TrimSpace(query)
	if query == "" {
		return commands
	}

	type scored struct {
		cmd   Command
		score int
	}
	var hits []scored
	for _, cmd := range commands {
		fields := commandFields(cmd)
		if !matchesAny(query, fields) {
			continue
		}
		hits = append(hits, scored{cmd: cmd, score: bestScore(query, fields)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	out := make([]Command, len(hits))
	for i, h := range hits {
		out[i] = h.cmd
	}
	return out
}

func itemFields(item Item) []string {
	fields := []string{item.Title}
	if item.Slug != "" {
		fields = append(fields, item.Slug)
	}
	if item.Description != "" {
		fields = append(fields, item.Description)
	}
	fields = append(fields, item.Keywords...)
	return fields
}

func commandFields(cmd Command) []string {
	fields := []string{cmd.Title}
	if cmd.Description != "" {
		fields = append(fields, cmd.Description)
	}
	fields = append(fields, cmd.Keywords...)
	return fields
}

func matchesAny(query string, fields []string) bool {
	for _, field := range fields {
		if Matches(query, field) {
			return true
		}
	}
	return false
}

// bestScore is the maximum Score across the fields that matched.
func bestScore(query string, fields []string) int {
	best := 0
	for _, field := range fields {
		if !Matches(query, field) {
			continue
		}
		if s := Score(query, field); s > best {
			best = s
		}
	}
	return best
}
