package machine

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Axes != 4 || p.Version != profileVersion {
		t.Errorf("default profile: axes=%d version=%d", p.Axes, p.Version)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	want := &Profile{
		Version:   profileVersion,
		Name:      "router",
		Axes:      2,
		InvertDir: true,
		Serial:    SerialConfig{Port: "/dev/ttyACM0", Baud: 115200},
		Pins: PinConfig{
			Clk: []string{"GPIO17", "GPIO27"},
			Dir: []string{"GPIO18", "GPIO22"},
		},
	}
	if err := Save(want, path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Name != want.Name || got.Axes != want.Axes || !got.InvertDir {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if got.Serial != want.Serial {
		t.Errorf("serial mismatch: %+v", got.Serial)
	}
	if len(got.Pins.Clk) != 2 || got.Pins.Clk[0] != "GPIO17" {
		t.Errorf("pins mismatch: %+v", got.Pins)
	}
}

func TestLoad_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	if err := os.WriteFile(path, []byte("axes: [nonsense"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("corrupt profile accepted")
	}
}

func TestLoad_MigratesUnversioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	body := "name: old\nserial:\n  port: /dev/ttyUSB1\n  baud: 9600\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Version != profileVersion || p.Axes != 4 {
		t.Errorf("migration: version=%d axes=%d", p.Version, p.Axes)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Profile)
		wantErr bool
	}{
		{"default ok", func(p *Profile) {}, false},
		{"two axes ok", func(p *Profile) { p.Axes = 2 }, false},
		{"three axes", func(p *Profile) { p.Axes = 3 }, true},
		{"zero baud", func(p *Profile) { p.Serial.Baud = 0 }, true},
		{"mismatched pins", func(p *Profile) { p.Pins.Clk = []string{"GPIO17"} }, true},
		{"wrong pin count", func(p *Profile) {
			p.Pins.Clk = []string{"GPIO17", "GPIO27"}
			p.Pins.Dir = []string{"GPIO18", "GPIO22"}
		}, true},
	}
	for _, tc := range tests {
		p := Default()
		tc.mutate(p)
		err := p.Validate()
		if (err != nil) != tc.wantErr {
			t.Errorf("%s: err=%v, wantErr=%v", tc.name, err, tc.wantErr)
		}
	}
}

func TestCreateIfMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "machine.yaml")
	if err := CreateIfMissing(path); err != nil {
		t.Fatalf("CreateIfMissing: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("profile not created: %v", err)
	}

	// A second call must not clobber edits.
	if err := os.WriteFile(path, []byte("version: 1\nname: edited\naxes: 2\nserial:\n  port: x\n  baud: 9600\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CreateIfMissing(path); err != nil {
		t.Fatalf("CreateIfMissing: %v", err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "edited" {
		t.Errorf("CreateIfMissing overwrote an existing profile: %q", p.Name)
	}
}
