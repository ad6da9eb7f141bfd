package operations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
)

// runSplit cuts each PDF input into one document per configured page range.
func (r *Registry) runSplit(ctx context.Context, req engine.Request) (engine.Payload, error) {
	cfg, err := configAs[*pipeline.SplitConfig](req)
	if err != nil {
		return nil, err
	}
	if len(req.Input) == 0 {
		return nil, fmt.Errorf("%w: split has nothing to cut", ErrEmptyInput)
	}

	out := make(engine.Payload)
	for _, name := range req.Input.Names() {
		blob := req.Input[name]
		if formats.Normalize(blob.Format) != "pdf" {
			return nil, fmt.Errorf("%w: split accepts pdf, %s is %s", ErrUnsupportedFormat, name, blob.Format)
		}

		for _, span := range cfg.Ranges {
			selection := fmt.Sprintf("%d-%d", span[0], span[1])

			var buf bytes.Buffer
			if err := api.Trim(bytes.NewReader(blob.Data), &buf, []string{selection}, nil); err != nil {
				return nil, fmt.Errorf("split %s pages %s: %w", name, selection, err)
			}

			part := fmt.Sprintf("%s-pages-%s.pdf", stem(name), selection)
			out[part] = engine.Blob{Format: "pdf", Data: buf.Bytes()}
		}
	}

	r.logger.DebugContext(ctx, "split complete",
		"node", req.NodeID,
		"documents", len(req.Input),
		"parts", len(out))

	return out, nil
}

// runMerge combines the inputs, in name order, into a single document.
// PDF inputs merge structurally; text inputs concatenate.
func (r *Registry) runMerge(ctx context.Context, req engine.Request) (engine.Payload, error) {
	names := req.Input.Names()
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: merge has nothing to combine", ErrEmptyInput)
	}

	format := formats.Normalize(req.Input[names[0]].Format)
	for _, name := range names {
		if formats.Normalize(req.Input[name].Format) != format {
			return nil, fmt.Errorf("%w: merge inputs mix %s and %s", ErrUnsupportedFormat, format, req.Input[name].Format)
		}
	}

	var merged engine.Blob
	switch format {
	case "pdf":
		readers := make([]io.ReadSeeker, 0, len(names))
		for _, name := range names {
			readers = append(readers, bytes.NewReader(req.Input[name].Data))
		}

		var buf bytes.Buffer
		if err := api.MergeRaw(readers, &buf, false, nil); err != nil {
			return nil, fmt.Errorf("merge %d documents: %w", len(names), err)
		}
		merged = engine.Blob{Format: "pdf", Data: buf.Bytes()}

	case "txt":
		var buf bytes.Buffer
		for i, name := range names {
			if i > 0 {
				buf.WriteByte('\n')
			}
			buf.Write(req.Input[name].Data)
		}
		merged = engine.Blob{Format: "txt", Data: buf.Bytes()}

	default:
		return nil, fmt.Errorf("%w: merge accepts pdf or txt, got %s", ErrUnsupportedFormat, format)
	}

	r.logger.DebugContext(ctx, "merge complete",
		"node", req.NodeID,
		"documents", len(names),
		"format", format)

	return engine.Payload{"merged." + format: merged}, nil
}

// runExtract pulls the configured pages out of each PDF input, either as a
// trimmed document, as page content text, or as the pages' embedded images.
func (r *Registry) runExtract(ctx context.Context, req engine.Request) (engine.Payload, error) {
	cfg, err := configAs[*pipeline.ExtractConfig](req)
	if err != nil {
		return nil, err
	}
	if len(req.Input) == 0 {
		return nil, fmt.Errorf("%w: extract has nothing to read", ErrEmptyInput)
	}

	out := make(engine.Payload)
	for _, name := range req.Input.Names() {
		blob := req.Input[name]
		if formats.Normalize(blob.Format) != "pdf" {
			return nil, fmt.Errorf("%w: extract accepts pdf, %s is %s", ErrUnsupportedFormat, name, blob.Format)
		}

		switch cfg.Target {
		case "", pipeline.ExtractPages:
			var buf bytes.Buffer
			if err := api.Trim(bytes.NewReader(blob.Data), &buf, pageSelection(cfg.Pages), nil); err != nil {
				return nil, fmt.Errorf("extract pages from %s: %w", name, err)
			}
			out[stem(name)+"-extract.pdf"] = engine.Blob{Format: "pdf", Data: buf.Bytes()}

		case pipeline.ExtractText:
			text, err := pdfText(blob.Data, cfg.Pages)
			if err != nil {
				return nil, fmt.Errorf("extract text from %s: %w", name, err)
			}
			out[stem(name)+".txt"] = engine.Blob{Format: "txt", Data: []byte(text)}

		case pipeline.ExtractImages:
			images, err := pdfImages(blob.Data, cfg.Pages)
			if err != nil {
				return nil, fmt.Errorf("extract images from %s: %w", name, err)
			}
			for imageName, imageBlob := range images {
				out[stem(name)+"-"+imageName] = imageBlob
			}
		}
	}

	r.logger.DebugContext(ctx, "extract complete",
		"node", req.NodeID,
		"target", cfg.Target,
		"files", len(out))

	return out, nil
}

// runCompress shrinks each input in place: PDF documents through pdfcpu
// optimization, images by re-encoding. Quality applies to JPEG output;
// PNG and TIFF re-encode at their strongest lossless settings.
func (r *Registry) runCompress(ctx context.Context, req engine.Request) (engine.Payload, error) {
	cfg, err := configAs[*pipeline.CompressConfig](req)
	if err != nil {
		return nil, err
	}
	if len(req.Input) == 0 {
		return nil, fmt.Errorf("%w: compress has nothing to shrink", ErrEmptyInput)
	}

	out := make(engine.Payload, len(req.Input))
	for _, name := range req.Input.Names() {
		blob := req.Input[name]
		format := formats.Normalize(blob.Format)

		switch format {
		case "pdf":
			var buf bytes.Buffer
			if err := api.Optimize(bytes.NewReader(blob.Data), &buf, nil); err != nil {
				return nil, fmt.Errorf("optimize %s: %w", name, err)
			}
			out[name] = engine.Blob{Format: "pdf", Key: blob.Key, Data: buf.Bytes()}

		case "jpg", "png", "tiff":
			img, err := decodeImage(blob.Data, format)
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", name, err)
			}
			data, err := encodeImage(img, format, cfg.Quality)
			if err != nil {
				return nil, fmt.Errorf("re-encode %s: %w", name, err)
			}
			out[name] = engine.Blob{Format: format, Key: blob.Key, Data: data}

		default:
			return nil, fmt.Errorf("%w: compress cannot process %s (%s)", ErrUnsupportedFormat, blob.Format, name)
		}
	}

	r.logger.DebugContext(ctx, "compress complete",
		"node", req.NodeID,
		"quality", cfg.Quality,
		"files", len(out))

	return out, nil
}

func pageSelection(pages []int) []string {
	selection := make([]string, 0, len(pages))
	for _, page := range pages {
		selection = append(selection, strconv.Itoa(page))
	}
	return selection
}

// pdfText extracts the decoded page content of the selected pages, in page
// order. An empty selection covers the whole document.
func pdfText(data []byte, pages []int) (string, error) {
	if len(pages) == 0 {
		count, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return "", fmt.Errorf("count pages: %w", err)
		}
		for page := 1; page <= count; page++ {
			pages = append(pages, page)
		}
	}

	dir, src, err := stagePDF(data)
	if err != nil {
		return "", err
	}
	defer os.RemoveAll(dir)

	var text strings.Builder
	for _, page := range pages {
		pageDir := filepath.Join(dir, strconv.Itoa(page))
		if err := os.Mkdir(pageDir, 0700); err != nil {
			return "", fmt.Errorf("stage page %d: %w", page, err)
		}

		if err := api.ExtractContentFile(src, pageDir, []string{strconv.Itoa(page)}, nil); err != nil {
			return "", fmt.Errorf("extract page %d: %w", page, err)
		}

		if err := appendDir(&text, pageDir); err != nil {
			return "", fmt.Errorf("read page %d: %w", page, err)
		}
	}

	return text.String(), nil
}

// pdfImages extracts the embedded images of the selected pages. Blob names
// come from the extraction artifacts and are unique per source document.
func pdfImages(data []byte, pages []int) (engine.Payload, error) {
	dir, src, err := stagePDF(data)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	imgDir := filepath.Join(dir, "images")
	if err := os.Mkdir(imgDir, 0700); err != nil {
		return nil, fmt.Errorf("stage images: %w", err)
	}

	if err := api.ExtractImagesFile(src, imgDir, pageSelection(pages), nil); err != nil {
		return nil, fmt.Errorf("extract images: %w", err)
	}

	entries, err := os.ReadDir(imgDir)
	if err != nil {
		return nil, fmt.Errorf("read images: %w", err)
	}

	out := make(engine.Payload, len(entries))
	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(imgDir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read image %s: %w", entry.Name(), err)
		}
		format := formats.Normalize(filepath.Ext(entry.Name()))
		out[entry.Name()] = engine.Blob{Format: format, Data: data}
	}

	return out, nil
}

// stagePDF writes PDF bytes into a fresh scratch directory for the pdfcpu
// file-based extraction APIs. The caller removes the directory.
func stagePDF(data []byte) (dir, src string, err error) {
	dir, err = os.MkdirTemp("", "cascade-pdf-*")
	if err != nil {
		return "", "", fmt.Errorf("stage scratch dir: %w", err)
	}

	src = filepath.Join(dir, "source.pdf")
	if err := os.WriteFile(src, data, 0600); err != nil {
		os.RemoveAll(dir)
		return "", "", fmt.Errorf("stage source pdf: %w", err)
	}

	return dir, src, nil
}

func appendDir(text *strings.Builder, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		text.Write(data)
		text.WriteByte('\n')
	}

	return nil
}
