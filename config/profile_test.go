package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

const validProfile = `
monitor: 1
region:
  left: 100
  top: 200
  width: 320
  height: 240
difference:
  method: nrmse
  threshold: 0.05
references:
  - image: loading.png
  - image: loading_alt.png
    mask: loading_alt_mask.png
`

func TestLoadProfile_Valid(t *testing.T) {
	path := writeProfile(t, validProfile)
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Monitor != 1 {
		t.Fatalf("monitor: got %d", p.Monitor)
	}
	if p.Region.Width != 320 || p.Region.Height != 240 {
		t.Fatalf("region: got %+v", p.Region)
	}
	if p.Method != MethodNRMSE || p.Threshold != 0.05 {
		t.Fatalf("difference: got %v %v", p.Method, p.Threshold)
	}
	if p.TargetRate != DefaultTargetRate {
		t.Fatalf("expected default rate %v, got %v", DefaultTargetRate, p.TargetRate)
	}
	if p.OnError != PolicyAbort {
		t.Fatalf("expected default abort policy, got %v", p.OnError)
	}
	if len(p.References) != 2 {
		t.Fatalf("references: got %d", len(p.References))
	}
}

func TestLoadProfile_ResolvesRelativePaths(t *testing.T) {
	path := writeProfile(t, validProfile)
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "loading.png")
	if p.References[0].Image != want {
		t.Fatalf("expected %s, got %s", want, p.References[0].Image)
	}
	if p.References[0].Mask != "" {
		t.Fatalf("maskless entry resolved a mask: %s", p.References[0].Mask)
	}
	wantMask := filepath.Join(filepath.Dir(path), "loading_alt_mask.png")
	if p.References[1].Mask != wantMask {
		t.Fatalf("expected %s, got %s", wantMask, p.References[1].Mask)
	}
}

func TestLoadProfile_ExplicitRateAndPolicy(t *testing.T) {
	path := writeProfile(t, `
monitor: 0
region: {left: 0, top: 0, width: 10, height: 10}
difference: {method: nrmse, threshold: 0.1}
target_dps: 10.5
on_error: retry
filters: [mean_greyscale]
references:
  - image: ref.png
`)
	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TargetRate != 10.5 {
		t.Fatalf("rate: got %v", p.TargetRate)
	}
	if p.OnError != PolicyRetry {
		t.Fatalf("policy: got %v", p.OnError)
	}
	if len(p.Filters) != 1 || p.Filters[0] != FilterMeanGreyscale {
		t.Fatalf("filters: got %v", p.Filters)
	}
}

func TestLoadProfile_UnknownMethod(t *testing.T) {
	path := writeProfile(t, `
monitor: 0
region: {left: 0, top: 0, width: 10, height: 10}
difference: {method: ssim, threshold: 0.1}
references: [{image: ref.png}]
`)
	if _, err := LoadProfile(path); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestLoadProfile_UnknownFilter(t *testing.T) {
	path := writeProfile(t, `
monitor: 0
region: {left: 0, top: 0, width: 10, height: 10}
difference: {method: nrmse, threshold: 0.1}
filters: [sepia]
references: [{image: ref.png}]
`)
	if _, err := LoadProfile(path); !errors.Is(err, ErrUnknownFilter) {
		t.Fatalf("expected ErrUnknownFilter, got %v", err)
	}
}

func TestLoadProfile_MalformedRegion(t *testing.T) {
	cases := []string{
		`region: {left: -1, top: 0, width: 10, height: 10}`,
		`region: {left: 0, top: 0, width: 0, height: 10}`,
		`region: {left: 0, top: 0, width: 10, height: -5}`,
	}
	for _, region := range cases {
		path := writeProfile(t, `
monitor: 0
`+region+`
difference: {method: nrmse, threshold: 0.1}
references: [{image: ref.png}]
`)
		if _, err := LoadProfile(path); !errors.Is(err, ErrInvalidRegion) {
			t.Fatalf("%s: expected ErrInvalidRegion, got %v", region, err)
		}
	}
}

func TestLoadProfile_NoReferences(t *testing.T) {
	path := writeProfile(t, `
monitor: 0
region: {left: 0, top: 0, width: 10, height: 10}
difference: {method: nrmse, threshold: 0.1}
references: []
`)
	if _, err := LoadProfile(path); !errors.Is(err, ErrNoReferences) {
		t.Fatalf("expected ErrNoReferences, got %v", err)
	}
}

func TestLoadProfile_NegativeThreshold(t *testing.T) {
	path := writeProfile(t, `
monitor: 0
region: {left: 0, top: 0, width: 10, height: 10}
difference: {method: nrmse, threshold: -0.1}
references: [{image: ref.png}]
`)
	if _, err := LoadProfile(path); !errors.Is(err, ErrInvalidThreshold) {
		t.Fatalf("expected ErrInvalidThreshold, got %v", err)
	}
}

func TestCanonicalFilters_OrderIndependentAndDeduped(t *testing.T) {
	a := canonicalFilters([]Filter{FilterMeanGreyscale, FilterMeanGreyscale})
	if len(a) != 1 || a[0] != FilterMeanGreyscale {
		t.Fatalf("expected deduped single filter, got %v", a)
	}
	if canonicalFilters(nil) != nil {
		t.Fatal("empty input should stay empty")
	}
}
