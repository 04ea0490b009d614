package roster

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// DefaultSource is the roster file the chart loads when nothing else is configured.
const DefaultSource = "baseball_data.csv"

// LoadError reports a roster source that could not be read or parsed.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load roster %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

var errNoHeader = errors.New("missing header row")

// Load reads the roster at source, which is either a local path or an
// http(s) URL. A nil client means http.DefaultClient.
func Load(ctx context.Context, client *http.Client, source string) ([]Player, error) {
	rc, err := open(ctx, client, source)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	defer rc.Close()

	players, err := Decode(rc)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	return players, nil
}

func open(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// Decode parses comma-separated roster rows. The first row is the header;
// columns are matched by name and unknown columns are ignored. Numeric cells
// that do not parse become NaN and are kept.
func Decode(r io.Reader) ([]Player, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	cell := func(row []string, name string) (string, bool) {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}
	num := func(row []string, name string) float64 {
		s, ok := cell(row, name)
		if !ok {
			return math.NaN()
		}
		return ParseNumber(s)
	}

	var players []Player
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(players)+2, err)
		}
		name, _ := cell(row, "name")
		hand, _ := cell(row, "handedness")
		players = append(players, Player{
			Name:       name,
			Height:     num(row, string(KeyHeight)),
			Weight:     num(row, string(KeyWeight)),
			Handedness: hand,
			Avg:        num(row, string(KeyAvg)),
			HR:         num(row, string(KeyHR)),
		})
	}
	return players, nil
}

var decimalLiteral = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// ParseNumber converts a cell the way a browser coerces a string to a
// number: surrounding whitespace is ignored, the empty string is 0, integer
// literals may carry a 0x, 0o or 0b prefix, and anything else that is not a
// decimal literal or Infinity is NaN.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	switch s {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			if strings.ContainsRune(s[2:], '_') {
				return math.NaN()
			}
			u, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(u)
		}
	}
	if !decimalLiteral.MatchString(s) {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return math.NaN()
	}
	return f
}
