package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pterm/pterm"
)

const sample = "pkg/a2l/testdata/sample.a2l"

func run(t *testing.T, args ...string) error {
	t.Helper()
	pterm.DisableOutput()
	defer pterm.EnableOutput()
	cmd := NewCommand()
	cmd.SetArgs(append(args, "--log-level", "error"))
	return cmd.Execute()
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"", 0},
		{"0", 0},
		{"1000", 0x1000},
		{"0x1000", 0x1000},
		{"0XfF", 0xff},
		{"-0x20", -0x20},
	}
	for _, tt := range tests {
		got, err := parseOffset(tt.in)
		if err != nil {
			t.Errorf("parseOffset(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOffset(%q) = %#x, want %#x", tt.in, got, tt.want)
		}
	}
	if _, err := parseOffset("zz"); err == nil {
		t.Error("expected an error for a non-hex offset")
	}
}

func TestOutputName(t *testing.T) {
	got := OutputName(filepath.Join("defs", "DQ250.A2L"), "maps/ignition.csv", "xdf")
	if want := filepath.Join("defs", "DQ250.ignition.xdf"); got != want {
		t.Errorf("OutputName = %q, want %q", got, want)
	}
	got = OutputName("box.a2l", "ALL", "xml")
	if want := "box.ALL.xml"; got != want {
		t.Errorf("OutputName = %q, want %q", got, want)
	}
}

func TestConvertCommands(t *testing.T) {
	dir := t.TempDir()
	xdfOut := filepath.Join(dir, "out.xdf")
	if err := run(t, "xdf", sample, "ALL", "-o", xdfOut); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(xdfOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<XDFTABLE uniqueid="0x20000" flags="0x30">`) {
		t.Errorf("KFZW missing from xdf:\n%s", data)
	}

	sel := filepath.Join(dir, "sel.csv")
	if err := run(t, "template", sample, sel); err != nil {
		t.Fatal(err)
	}
	xmlOut := filepath.Join(dir, "out.xml")
	if err := run(t, "xml", sample, sel, "-o", xmlOut); err != nil {
		t.Fatal(err)
	}
	data, err = os.ReadFile(xmlOut)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `<ecu_struct id="sample"`) {
		t.Errorf("ecu_struct missing from xml:\n%s", data)
	}
}

func TestUnknownFamily(t *testing.T) {
	err := run(t, "xdf", sample, "ALL", "--family", "nope", "-o", filepath.Join(t.TempDir(), "x.xdf"))
	if err == nil || !strings.Contains(err.Error(), "unknown family") {
		t.Errorf("err = %v", err)
	}
}
