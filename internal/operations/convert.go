package operations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"maps"
	"os"
	"runtime"
	"slices"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/document-context/pkg/config"
	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/image"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

const defaultRenderDPI = 300

// runConvert transcodes each input into the configured target format. The
// capability table is the authority on which pairs the backend performs;
// a pair outside it fails the node rather than producing a partial result.
func (r *Registry) runConvert(ctx context.Context, req engine.Request) (engine.Payload, error) {
	cfg, err := configAs[*pipeline.ConvertConfig](req)
	if err != nil {
		return nil, err
	}
	if len(req.Input) == 0 {
		return nil, fmt.Errorf("%w: convert has nothing to transcode", ErrEmptyInput)
	}

	target := formats.Normalize(cfg.Target)

	out := make(engine.Payload)
	for _, name := range req.Input.Names() {
		blob := req.Input[name]
		source := formats.Normalize(blob.Format)

		if source == target {
			out[name] = blob
			continue
		}
		if !slices.Contains(r.formats.ConversionTargets(source), target) {
			return nil, fmt.Errorf("%w: %s to %s (%s)", ErrUnsupportedConversion, source, target, name)
		}

		converted, err := r.convertBlob(ctx, name, blob, source, target, cfg.DPI)
		if err != nil {
			return nil, err
		}
		maps.Copy(out, converted)
	}

	r.logger.DebugContext(ctx, "convert complete",
		"node", req.NodeID,
		"target", target,
		"files", len(out))

	return out, nil
}

func (r *Registry) convertBlob(ctx context.Context, name string, blob engine.Blob, source, target string, dpi int) (engine.Payload, error) {
	switch {
	case source == "pdf" && r.isImage(target):
		pages, err := renderPDF(ctx, blob.Data, target, dpi)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", name, err)
		}

		out := make(engine.Payload, len(pages))
		for i, page := range pages {
			pageName := fmt.Sprintf("%s-page-%d.%s", stem(name), i+1, target)
			out[pageName] = engine.Blob{Format: target, Data: page}
		}
		return out, nil

	case source == "pdf" && target == "txt":
		text, err := pdfText(blob.Data, nil)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", name, err)
		}
		return engine.Payload{stem(name) + ".txt": {Format: "txt", Data: []byte(text)}}, nil

	case r.isImage(source) && target == "pdf":
		var buf bytes.Buffer
		images := []io.Reader{bytes.NewReader(blob.Data)}
		if err := api.ImportImages(nil, &buf, images, nil, nil); err != nil {
			return nil, fmt.Errorf("import %s: %w", name, err)
		}
		return engine.Payload{stem(name) + ".pdf": {Format: "pdf", Data: buf.Bytes()}}, nil

	case r.isImage(source) && r.isImage(target):
		img, err := decodeImage(blob.Data, source)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		data, err := encodeImage(img, target, 0)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		return engine.Payload{stem(name) + "." + target: {Format: target, Data: data}}, nil

	case source == "docx" && target == "txt":
		text, err := docxText(blob.Data)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", name, err)
		}
		return engine.Payload{stem(name) + ".txt": {Format: "txt", Data: []byte(text)}}, nil

	case source == "xlsx" && target == "csv":
		data, err := xlsxCSV(blob.Data)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", name, err)
		}
		return engine.Payload{stem(name) + ".csv": {Format: "csv", Data: data}}, nil

	case source == "csv" && target == "txt":
		data, err := csvText(blob.Data)
		if err != nil {
			return nil, fmt.Errorf("convert %s: %w", name, err)
		}
		return engine.Payload{stem(name) + ".txt": {Format: "txt", Data: data}}, nil
	}

	return nil, fmt.Errorf("%w: %s to %s (%s)", ErrUnsupportedConversion, source, target, name)
}

func (r *Registry) isImage(format string) bool {
	f, ok := r.formats.Lookup(format)
	return ok && f.Category == formats.CategoryImage
}

// renderPDF rasterizes every page of a PDF into the target image format
// via ImageMagick, rendering pages concurrently.
func renderPDF(ctx context.Context, data []byte, target string, dpi int) ([][]byte, error) {
	if dpi <= 0 {
		dpi = defaultRenderDPI
	}

	dir, src, err := stagePDF(data)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	pdfDoc, err := document.OpenPDF(src)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer pdfDoc.Close()

	renderer, err := image.NewImageMagickRenderer(config.ImageConfig{
		Format: target,
		DPI:    dpi,
		Options: map[string]any{
			"background": "white",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}

	pages, err := pdfDoc.ExtractAllPages()
	if err != nil {
		return nil, fmt.Errorf("extract pages: %w", err)
	}

	rendered := make([][]byte, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renderWorkers(len(pages)))

	for i, page := range pages {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			data, err := page.ToImage(renderer, nil)
			if err != nil {
				return fmt.Errorf("render page %d: %w", i+1, err)
			}

			rendered[i] = data
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return rendered, nil
}

func renderWorkers(pages int) int {
	return max(min(runtime.NumCPU(), pages), 1)
}
