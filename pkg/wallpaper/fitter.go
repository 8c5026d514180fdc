package wallpaper

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/dixieflatline76/rngpaper/config"
	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/util/log"
	"github.com/muesli/smartcrop"
	_ "golang.org/x/image/webp" // register the webp decoder for imaging.Open
)

// Fitter writes copies of cached wallpapers cropped and scaled to a target resolution. Fitted
// files live below the cache directory, so emptying the cache removes them too.
type Fitter struct {
	dir       string
	resampler imaging.ResampleFilter
}

// NewFitter returns a fitter that stores derivatives under cacheDir.
func NewFitter(cacheDir string) *Fitter {
	return &Fitter{dir: cacheDir, resampler: imaging.Lanczos}
}

// Fit returns a copy of masterPath fitted to width x height, creating it on first use. Images
// smaller than the target are returned unchanged.
func (f *Fitter) Fit(ctx context.Context, masterPath string, width, height int) (string, error) {
	targetDir := filepath.Join(f.dir, FittedImgDir, fmt.Sprintf("%dx%d", width, height))
	targetPath := filepath.Join(targetDir, fittedName(filepath.Base(masterPath)))

	hit, err := exists(targetPath)
	if err != nil {
		return "", fmt.Errorf("%w: stat %s: %v", errkind.ErrFilesystem, targetPath, err)
	}
	if hit {
		return targetPath, nil
	}

	img, err := imaging.Open(masterPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("%w: decode %s: %v", errkind.ErrDecode, masterPath, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() < width || bounds.Dy() < height {
		log.Printf("Image %s (%dx%d) is smaller than %dx%d, using it unfitted", masterPath, bounds.Dx(), bounds.Dy(), width, height)
		return masterPath, nil
	}
	if bounds.Dx() == width && bounds.Dy() == height {
		return masterPath, nil
	}

	fitted, err := f.fitImage(ctx, img, width, height)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(targetDir, config.DirPermissions); err != nil {
		return "", fmt.Errorf("%w: create %s: %v", errkind.ErrFilesystem, targetDir, err)
	}
	if err := saveAtomic(fitted, targetPath); err != nil {
		return "", err
	}
	log.Debugf("Fitted %s to %dx%d", masterPath, width, height)
	return targetPath, nil
}

// fitImage crops img to the target aspect with smartcrop, then scales it to the target size.
func (f *Fitter) fitImage(ctx context.Context, img image.Image, width, height int) (image.Image, error) {
	bounds := img.Bounds()
	if bounds.Dx()*height != bounds.Dy()*width {
		analyzer := smartcrop.NewAnalyzer(&resizer{resampler: f.resampler})

		type cropResult struct {
			crop image.Rectangle
			err  error
		}
		resultChan := make(chan cropResult, 1)
		go func() {
			crop, err := analyzer.FindBestCrop(img, width, height)
			resultChan <- cropResult{crop: crop, err: err}
		}()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("%w: finding best crop: %v", errkind.ErrDecode, result.err)
			}
			img = imaging.Crop(img, result.crop)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return imaging.Resize(img, width, height, f.resampler), nil
}

// resizer adapts imaging to smartcrop's Resizer interface.
type resizer struct {
	resampler imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.resampler)
}

// fittedName keeps the master's name when imaging can encode its format and switches to .jpg
// otherwise (webp masters).
func fittedName(masterName string) string {
	if _, err := imaging.FormatFromFilename(masterName); err == nil {
		return masterName
	}
	return strings.TrimSuffix(masterName, filepath.Ext(masterName)) + ".jpg"
}

func saveAtomic(img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("%w: %v", errkind.ErrDecode, err)
	}

	dir, name := filepath.Split(path)
	tmp, err := os.CreateTemp(dir, "."+name+partFileSuffix)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", errkind.ErrFilesystem, err)
	}
	tmpPath := tmp.Name()

	if err := imaging.Encode(tmp, img, format, imaging.JPEGQuality(95)); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: encode %s: %v", errkind.ErrFilesystem, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp file: %v", errkind.ErrFilesystem, err)
	}
	if err := os.Chmod(tmpPath, config.FilePermissions); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: chmod temp file: %v", errkind.ErrFilesystem, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: move fitted image into cache: %v", errkind.ErrFilesystem, err)
	}
	return nil
}
