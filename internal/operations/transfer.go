package operations

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"

	"github.com/JaimeStill/cascade/internal/engine"
)

// runInput materializes the declared input documents. Blobs submitted by
// key reference stored documents and are downloaded; blobs that already
// carry data pass through untouched.
func (r *Registry) runInput(ctx context.Context, req engine.Request) (engine.Payload, error) {
	out := make(engine.Payload, len(req.Input))

	for _, name := range req.Input.Names() {
		blob := req.Input[name]
		if len(blob.Data) > 0 || blob.Key == "" {
			out[name] = blob
			continue
		}

		result, err := r.storage.Download(ctx, blob.Key)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}

		data, err := io.ReadAll(result.Body)
		result.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		blob.Data = data
		out[name] = blob
	}

	r.logger.DebugContext(ctx, "input materialized",
		"node", req.NodeID,
		"files", len(out))

	return out, nil
}

// runOutput persists every incoming blob under the execution's result
// prefix and reports the written keys on the returned payload.
func (r *Registry) runOutput(ctx context.Context, req engine.Request) (engine.Payload, error) {
	if len(req.Input) == 0 {
		return nil, fmt.Errorf("%w: output has nothing to persist", ErrEmptyInput)
	}

	out := make(engine.Payload, len(req.Input))
	for _, name := range req.Input.Names() {
		blob := req.Input[name]
		key := path.Join(r.outputPrefix, req.RunID.String(), req.NodeID, name)

		contentType := r.formats.ContentType(blob.Format)
		if err := r.storage.Upload(ctx, key, bytes.NewReader(blob.Data), contentType); err != nil {
			return nil, fmt.Errorf("persist %s: %w", name, err)
		}

		blob.Key = key
		out[name] = blob
	}

	r.logger.InfoContext(ctx, "outputs persisted",
		"node", req.NodeID,
		"execution", req.RunID,
		"files", len(out))

	return out, nil
}
