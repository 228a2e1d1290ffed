package render_test

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"ecgnote/internal/patientstore"
	"ecgnote/internal/render"
	"ecgnote/internal/testsupport"
)

func TestRunWritesThreeImagesPerPatient(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStore(testsupport.Pending("P001", "P002")...))
	store := testsupport.MustLoadStore(t, cfg.Paths.StorePath)

	summary, err := render.New(cfg, store, nil).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Rendered != 2 || summary.Skipped != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	reloaded := testsupport.MustLoadStore(t, cfg.Paths.StorePath)
	rec, _ := reloaded.Record("P002")
	images := rec.Images()
	if len(images) != 3 || images[0] != "P002-1.png" || images[2] != "P002-3.png" {
		t.Fatalf("img_name = %v", images)
	}
	f, err := os.Open(filepath.Join(cfg.Paths.RenderDir, images[1]))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode png: %v", err)
	}
	if b := img.Bounds(); b.Dx() != cfg.Render.Width || b.Dy() != cfg.Render.Height {
		t.Fatalf("image size %v", b)
	}
}

func TestRunSkipsRenderedPatientsUnlessForced(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStore(
		testsupport.Patient{ID: "P001", Images: []string{"old-1.png", "old-2.png", "old-3.png"}},
		testsupport.Patient{ID: "P002"},
	))
	store := testsupport.MustLoadStore(t, cfg.Paths.StorePath)
	renderer := render.New(cfg, store, nil)

	summary, err := renderer.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Rendered != 1 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	rec, _ := store.Record("P001")
	if rec.Images()[0] != "old-1.png" {
		t.Fatal("rendered patient was redrawn without force")
	}

	before, _ := os.ReadFile(cfg.Paths.StorePath)
	summary, err = renderer.Run(context.Background())
	if err != nil || summary.Rendered != 0 {
		t.Fatalf("second run: %+v %v", summary, err)
	}
	after, _ := os.ReadFile(cfg.Paths.StorePath)
	if !bytes.Equal(before, after) {
		t.Fatal("idle run rewrote the store")
	}

	var progress bytes.Buffer
	renderer.SetForce(true)
	renderer.SetProgress(&progress)
	summary, err = renderer.Run(context.Background())
	if err != nil || summary.Rendered != 2 {
		t.Fatalf("forced run: %+v %v", summary, err)
	}
	rec, _ = store.Record("P001")
	if rec.Images()[0] != "P001-1.png" {
		t.Fatalf("forced run kept %v", rec.Images())
	}
}

func TestRunReportsFormatErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	doc := `{"P001": {"LR": "L", "raw_ecg_wave_voltage": [1, 2, 3], "denoised_ecg_wave_voltage": [1, 2, 3]}}`
	if err := os.WriteFile(cfg.Paths.StorePath, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	store := testsupport.MustLoadStore(t, cfg.Paths.StorePath)

	_, err := render.New(cfg, store, nil).Run(context.Background())
	if !errors.Is(err, patientstore.ErrFormat) {
		t.Fatalf("expected format error, got %v", err)
	}
}

func TestImageName(t *testing.T) {
	if got := render.ImageName("S01_2", 3); got != "S01_2-3.png" {
		t.Fatalf("ImageName = %q", got)
	}
}
