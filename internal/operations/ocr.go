package operations

import (
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/document-context/pkg/document"
	"github.com/JaimeStill/document-context/pkg/encoding"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/cascade/internal/engine"
	"github.com/JaimeStill/cascade/internal/formats"
	"github.com/JaimeStill/cascade/internal/pipeline"
	"github.com/JaimeStill/cascade/pkg/formatting"
)

type ocrResponse struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

const ocrInstructions = `Transcribe every piece of text visible in this page image, reading in the natural order of the layout. Preserve line breaks between blocks. Do not describe the image or add commentary.

Respond with JSON:
{"text": "<full transcription>", "confidence": <0.0-1.0>}`

func ocrPrompt(languages []string) string {
	return fmt.Sprintf("%s\n\nExpected languages, most likely first: %s.",
		ocrInstructions, strings.Join(languages, ", "))
}

// runOcr recognizes the text of each input document with the vision agent.
// PDF inputs are rendered to page images first; pages are recognized in
// parallel with bounded concurrency, each goroutine creating its own agent.
func (r *Registry) runOcr(ctx context.Context, req engine.Request) (engine.Payload, error) {
	cfg, err := configAs[*pipeline.OcrConfig](req)
	if err != nil {
		return nil, err
	}
	if len(req.Input) == 0 {
		return nil, fmt.Errorf("%w: ocr has nothing to read", ErrEmptyInput)
	}

	prompt := ocrPrompt(cfg.Languages)

	out := make(engine.Payload, len(req.Input))
	for _, name := range req.Input.Names() {
		blob := req.Input[name]

		pages, err := r.ocrPages(ctx, name, blob)
		if err != nil {
			return nil, err
		}

		texts := make([]string, len(pages))
		confidences := make([]float64, len(pages))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(renderWorkers(len(pages)))

		for i, page := range pages {
			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				a, err := agent.New(&r.agent)
				if err != nil {
					return fmt.Errorf("page %d: create agent: %w", i+1, err)
				}

				dataURI, err := encoding.EncodeImageDataURI(page, document.PNG)
				if err != nil {
					return fmt.Errorf("page %d: encode image: %w", i+1, err)
				}

				resp, err := a.Vision(gctx, prompt, []string{dataURI})
				if err != nil {
					return fmt.Errorf("page %d: vision call: %w", i+1, err)
				}

				parsed, err := formatting.Parse[ocrResponse](resp.Content())
				if err != nil {
					return fmt.Errorf("page %d: parse response: %w", i+1, err)
				}

				texts[i] = parsed.Text
				confidences[i] = parsed.Confidence
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("recognize %s: %w", name, err)
		}

		if low := minConfidence(confidences); low < 0.5 {
			r.logger.WarnContext(ctx, "low recognition confidence",
				"node", req.NodeID,
				"document", name,
				"confidence", low)
		}

		out[stem(name)+".txt"] = engine.Blob{Format: "txt", Data: []byte(strings.Join(texts, "\n\n"))}
	}

	r.logger.InfoContext(ctx, "ocr complete",
		"node", req.NodeID,
		"documents", len(req.Input))

	return out, nil
}

// ocrPages renders a blob into the PNG page images the vision agent reads.
func (r *Registry) ocrPages(ctx context.Context, name string, blob engine.Blob) ([][]byte, error) {
	format := formats.Normalize(blob.Format)

	switch format {
	case "pdf":
		return renderPDF(ctx, blob.Data, "png", defaultRenderDPI)
	case "png":
		return [][]byte{blob.Data}, nil
	case "jpg", "tiff":
		img, err := decodeImage(blob.Data, format)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		data, err := encodeImage(img, "png", 0)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		return [][]byte{data}, nil
	}

	return nil, fmt.Errorf("%w: ocr cannot read %s (%s)", ErrUnsupportedFormat, blob.Format, name)
}

func minConfidence(confidences []float64) float64 {
	low := 1.0
	for _, confidence := range confidences {
		if confidence < low {
			low = confidence
		}
	}
	return low
}
