package selection

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/tosih/a2l2ecu/pkg/assembler"
)

func TestRead(t *testing.T) {
	in := "\xef\xbb\xbfTable Name,Category 1,Category 2,Category 3,Custom Name\n" +
		"KFZW,Ignition,Base,,Ignition timing\n" +
		",Orphan,,,\n" +
		"KFSTD , Fuel\n"

	got, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []assembler.Request{
		{Name: "KFZW", Category: "Ignition", SubCategory: "Base", CustomName: "Ignition timing"},
		{Name: "KFSTD", Category: "Fuel"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
}

func TestReadReorderedColumns(t *testing.T) {
	in := "Custom Name,Table Name,Category 1\nTiming,KFZW,Ignition\n"
	got, err := Read(strings.NewReader(in))
	if err != nil {
		t.Fatal(err)
	}
	want := []assembler.Request{{Name: "KFZW", Category: "Ignition", CustomName: "Timing"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
}

func TestReadErrors(t *testing.T) {
	for name, in := range map[string]string{
		"empty":     "",
		"no name":   "Category 1,Custom Name\nA,B\n",
		"bad quote": "Table Name\n\"KFZW\n",
	} {
		if _, err := Read(strings.NewReader(in)); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestWriteRead(t *testing.T) {
	reqs := []assembler.Request{
		{Name: "KFZW", Category: "Ignition"},
		{Name: "KLGEAR", Category: "FN_IGN", CustomName: `gear "curve", long`},
	}
	var sb strings.Builder
	if err := Write(&sb, reqs); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(sb.String(), "Table Name,Category 1,Category 2,Category 3,Custom Name\n") {
		t.Errorf("header = %q", strings.SplitN(sb.String(), "\n", 2)[0])
	}
	got, err := Read(strings.NewReader(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(reqs, got); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}
}

func TestIsAll(t *testing.T) {
	if !IsAll("ALL") || IsAll("all.csv") {
		t.Error("IsAll mismatch")
	}
}

func TestWriteFileReportsFailure(t *testing.T) {
	reqs := []assembler.Request{{Name: "KFZW", Category: "Ignition"}}
	path := filepath.Join(t.TempDir(), "sel.csv")
	if err := WriteFile(path, reqs); err != nil {
		t.Fatal(err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(reqs, got); diff != "" {
		t.Errorf("requests (-want +got):\n%s", diff)
	}

	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}
	if err := WriteFile("/dev/full", reqs); err == nil {
		t.Error("expected an error when the device is full")
	}
}
