package roster_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"batter-scatter/roster"
)

const sample = "name,handedness,height,weight,avg,HR\n" +
	"Brandon Hyde,R,75,210,0.000,0\n" +
	"Carey Selph,R,69,175,0.277,0\n" +
	"Philip Nastu,L,74,180,0.040,0\n"

func TestDecode_TypesColumns(t *testing.T) {
	players, err := roster.Decode(strings.NewReader(sample))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	p := players[1]
	if p.Name != "Carey Selph" || p.Handedness != "R" {
		t.Fatalf("text columns not kept: %+v", p)
	}
	if p.Height != 69 || p.Weight != 175 || p.Avg != 0.277 || p.HR != 0 {
		t.Fatalf("numeric columns not parsed: %+v", p)
	}
	if players[2].Handedness != "L" {
		t.Fatalf("expected input order to be kept, got %+v", players[2])
	}
}

func TestDecode_MalformedNumbersBecomeNaN(t *testing.T) {
	in := "name,handedness,height,weight,avg,HR\n" +
		"Odd Row,B,tall,0x10,.250, 12 \n" +
		"Short Row,R,70\n"
	players, err := roster.Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	odd := players[0]
	if !math.IsNaN(odd.Height) {
		t.Fatalf("expected NaN height, got %v", odd.Height)
	}
	if odd.Weight != 16 || odd.Avg != 0.25 || odd.HR != 12 {
		t.Fatalf("unexpected numeric coercion: %+v", odd)
	}
	short := players[1]
	if short.Height != 70 || !math.IsNaN(short.Weight) || !math.IsNaN(short.HR) {
		t.Fatalf("missing cells should be NaN: %+v", short)
	}
}

func TestDecode_NoHeader(t *testing.T) {
	if _, err := roster.Decode(strings.NewReader("")); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"42", 42},
		{" 7 ", 7},
		{"", 0},
		{"-1.5e2", -150},
		{"5.", 5},
		{"+.5", 0.5},
		{"0b101", 5},
		{"0o17", 15},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
		{"1e400", math.Inf(1)},
	}
	for _, tt := range tests {
		if got := roster.ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	for _, in := range []string{"abc", "12abc", "inf", "NaN", "-0x10", "1_000", "0x"} {
		if got := roster.ParseNumber(in); !math.IsNaN(got) {
			t.Errorf("ParseNumber(%q) = %v, want NaN", in, got)
		}
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, roster.DefaultSource)
	if err := os.WriteFile(p, []byte(sample), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	players, err := roster.Load(context.Background(), nil, p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := roster.Load(context.Background(), nil, filepath.Join(t.TempDir(), "nope.csv"))
	var le *roster.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/baseball_data.csv" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(sample))
	}))
	defer srv.Close()

	players, err := roster.Load(context.Background(), srv.Client(), srv.URL+"/baseball_data.csv")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(players) != 3 || players[0].Name != "Brandon Hyde" {
		t.Fatalf("unexpected players: %+v", players)
	}

	_, err = roster.Load(context.Background(), srv.Client(), srv.URL+"/missing.csv")
	var le *roster.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError for 404, got %v", err)
	}
}

func TestValue_GroupKey(t *testing.T) {
	p := roster.Player{Name: "A", Height: 70, Handedness: "R", Avg: 0.3, HR: math.NaN()}
	if got := p.Value(roster.KeyHeight).String(); got != "70" {
		t.Fatalf("height key = %q", got)
	}
	if got := p.Value(roster.KeyAvg).String(); got != "0.3" {
		t.Fatalf("avg key = %q", got)
	}
	if got := p.Value(roster.KeyHR).String(); got != "NaN" {
		t.Fatalf("HR key = %q", got)
	}
	if got := roster.Num(math.Copysign(0, -1)).String(); got != "0" {
		t.Fatalf("negative zero key = %q", got)
	}
	v := p.Value(roster.KeyHandedness)
	if !v.IsLabel() || v.String() != "R" || !math.IsNaN(v.Float()) {
		t.Fatalf("handedness value = %+v", v)
	}
	if _, err := roster.ParseKey("bogus"); err == nil {
		t.Fatal("expected error for unknown key")
	}
}
