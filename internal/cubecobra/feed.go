// Package cubecobra fetches the canonical cube list as CSV from
// CubeCobra and turns it into card records for the cube.
package cubecobra

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ramonehamilton/cube-drafter/internal/cube"
	"github.com/ramonehamilton/cube-drafter/internal/scryfall"
)

const requestTimeout = 30 * time.Second

// Client loads cube lists from CubeCobra's CSV export (or a local copy
// of it) and backfills missing mana values from Scryfall.
type Client struct {
	httpClient *http.Client
	scryfall   *scryfall.Client
}

// New creates a feed client. scry may be nil, in which case rows with
// an unparsable CMC column fail the load instead of being backfilled.
func New(scry *scryfall.Client) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		scryfall:   scry,
	}
}

// FetchURL downloads and parses the cube CSV at url.
func (c *Client) FetchURL(ctx context.Context, url string) ([]cube.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch cube list: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("cube list fetch returned status %d", resp.StatusCode)
	}

	return c.Parse(ctx, resp.Body)
}

// LoadFile parses a cube CSV from the local filesystem.
func (c *Client) LoadFile(ctx context.Context, path string) ([]cube.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cube list: %w", err)
	}
	defer func() { _ = f.Close() }()

	return c.Parse(ctx, f)
}

// Parse reads a CubeCobra CSV export. The export's first row is a
// header; the name, Set, Collector Number, and CMC columns are used and
// everything else is ignored.
func (c *Client) Parse(ctx context.Context, r io.Reader) ([]cube.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"name", "set", "collector number"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("cube CSV is missing the %q column", required)
		}
	}

	field := func(row []string, name string) string {
		i := cols[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var records []cube.Record
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV line %d: %w", line, err)
		}

		rec := cube.Record{
			Name:            field(row, "name"),
			Set:             field(row, "set"),
			CollectorNumber: field(row, "collector number"),
		}
		if rec.Name == "" {
			return nil, fmt.Errorf("CSV line %d has no card name", line)
		}

		mv, err := strconv.Atoi(field(row, "cmc"))
		if err != nil {
			mv, err = c.backfillManaValue(ctx, rec)
			if err != nil {
				return nil, fmt.Errorf("resolve mana value for %q: %w", rec.Name, err)
			}
		}
		rec.ManaValue = mv

		records = append(records, rec)
	}

	return records, nil
}

func (c *Client) backfillManaValue(ctx context.Context, rec cube.Record) (int, error) {
	if c.scryfall == nil {
		return 0, fmt.Errorf("no Scryfall client configured")
	}
	card, err := c.scryfall.GetCard(ctx, rec.Set, rec.CollectorNumber)
	if err != nil {
		return 0, err
	}
	return int(card.CMC), nil
}
