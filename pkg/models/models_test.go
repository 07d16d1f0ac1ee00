package models

import "testing"

func TestDatatypeSizes(t *testing.T) {
	tests := []struct {
		dt      Datatype
		size    int
		storage string
	}{
		{UByte, 1, "uint8"},
		{SWord, 2, "int16"},
		{UWord, 2, "uint16"},
		{ULong, 4, "uint32"},
		{Float32, 4, "float"},
		{Int64, 8, "int64"},
		{"BOGUS", 0, ""},
	}
	for _, tt := range tests {
		if got := tt.dt.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dt, got, tt.size)
		}
		if got := tt.dt.StorageType(); got != tt.storage {
			t.Errorf("%s.StorageType() = %q, want %q", tt.dt, got, tt.storage)
		}
	}
	if Datatype("BOGUS").Known() {
		t.Error("BOGUS should not be known")
	}
}

func TestAxisMemSizeAndName(t *testing.T) {
	ax := AxisDescriptor{Kind: AxisStandard, InputQuantity: "nmot", MaxAxisPoints: 10, Datatype: UWord}
	if ax.MemSize() != 20 {
		t.Errorf("MemSize = %d, want 20", ax.MemSize())
	}
	if ax.Name() != "nmot" {
		t.Errorf("Name = %q", ax.Name())
	}

	shared := AxisDescriptor{Kind: AxisShared, InputQuantity: "nmot", Ref: &AxisPointsRef{Name: "SNM16ZUUB"}}
	if shared.Name() != "SNM16ZUUB" {
		t.Errorf("shared Name = %q", shared.Name())
	}
}

func TestUnitsFixDegree(t *testing.T) {
	cm := CompuMethod{Kind: CompuRational, Unit: "\uFFFDKW"}
	if got := cm.Units(); got != "°KW" {
		t.Errorf("Units = %q", got)
	}
	if got := (CompuMethod{Kind: CompuNone, Unit: "x"}).Units(); got != "" {
		t.Errorf("no compu method should have no units, got %q", got)
	}
}

func TestFindFamily(t *testing.T) {
	f, ok := FindFamily(Families, "simos18")
	if !ok || f.Name != "Simos18" {
		t.Fatalf("FindFamily(simos18) = %+v, %v", f, ok)
	}
	if !f.SharedAxisLengthPrefix || f.Iterate != IterateFunctions {
		t.Errorf("unexpected Simos18 policy: %+v", f)
	}
	if _, ok := FindFamily(Families, "ME7"); ok {
		t.Error("ME7 is not a built-in family")
	}
}
