package menu

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/appetiteclub/seatside/pkg/lib/core"
)

//go:embed fallback.json
var fallbackJSON []byte

// ErrMalformedFeed is returned by feeds whose payload is not a list of records.
var ErrMalformedFeed = errors.New("malformed menu feed")

// Feed is the read-only source of raw menu records.
type Feed interface {
	FetchMenu(ctx context.Context) ([]map[string]interface{}, error)
}

type SourceKind int

const (
	SourceLive SourceKind = iota
	SourceFallback
)

func (k SourceKind) String() string {
	if k == SourceFallback {
		return "fallback"
	}
	return "live"
}

// Source is a loaded menu tagged with where it came from. A live source may
// legitimately be empty.
type Source struct {
	Kind  SourceKind
	Items []MenuItem
}

func Live(items []MenuItem) Source {
	return Source{Kind: SourceLive, Items: items}
}

func Fallback(items []MenuItem) Source {
	return Source{Kind: SourceFallback, Items: items}
}

func (s Source) IsFallback() bool { return s.Kind == SourceFallback }

func (s Source) Groups() []Group { return GroupByCategory(s.Items) }

// Find returns the item with id.
func (s Source) Find(id string) (MenuItem, bool) {
	for _, it := range s.Items {
		if it.ID == id {
			return it, true
		}
	}
	return MenuItem{}, false
}

// Catalog loads the menu from a feed and degrades to the built-in sample menu.
type Catalog struct {
	feed   Feed
	logger core.Logger
}

func NewCatalog(feed Feed, logger core.Logger) *Catalog {
	if logger == nil {
		logger = core.NewNoopLogger()
	}
	return &Catalog{feed: feed, logger: logger}
}

// Load never fails: any feed error yields the fallback source.
func (c *Catalog) Load(ctx context.Context) Source {
	if c.feed == nil {
		c.logger.Info("no menu feed configured, using fallback menu")
		return Fallback(SampleMenu())
	}

	raw, err := c.feed.FetchMenu(ctx)
	if err != nil {
		c.logger.Error("cannot fetch menu feed, using fallback menu", "error", err)
		return Fallback(SampleMenu())
	}
	return Live(Normalize(raw))
}

// SampleMenu is the built-in menu served while the feed is unavailable.
func SampleMenu() []MenuItem {
	raw, err := decodeRaw(fallbackJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded fallback menu is invalid: %v", err))
	}
	return Normalize(raw)
}

// DecodeFeed parses a JSON array of raw menu records.
func DecodeFeed(data []byte) ([]map[string]interface{}, error) {
	return decodeRaw(data)
}

func decodeRaw(data []byte) ([]map[string]interface{}, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}
	return raw, nil
}
