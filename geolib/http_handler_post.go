package geolib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/qri-io/jsonschema"
)

var handlePostRequestJSONSchema = func() *jsonschema.Schema {
	data := `{
        "type": "object",
        "required": [
            "ips"
        ],
        "additionalProperties": false,
        "properties": {
            "ips": {
                "type": "array",
                "minItems": 1,
                "maxItems": 1024,
                "items": {
                    "type": "string",
                    "maxLength": 64
                }
            }
        }
    }`

	rv := &jsonschema.Schema{}
	if err := json.Unmarshal([]byte(data), rv); err != nil {
		panic(err)
	}

	return rv
}()

type handlePostRequest struct {
	IPs []string `json:"ips"`
}

type handlePostResponse struct {
	Results []Location `json:"results"`
}

type resolveTaskRequest struct {
	ctx      context.Context
	resolver *GeoResolver
	ip       string
	result   *Location
	err      *error
	wg       *sync.WaitGroup
}

func (h *HTTPHandler) resolveTask(args interface{}) {
	params := args.(*resolveTaskRequest)
	defer params.wg.Done()

	select {
	case <-params.ctx.Done():
		*params.err = ErrContextIsClosed
	default:
		*params.result, *params.err = params.resolver.LocationOf(params.ctx, params.ip)
	}
}

// resolveAll geolocates given addresses in a worker pool. Order of
// results matches an order of addresses.
func (h *HTTPHandler) resolveAll(ctx context.Context, resolver *GeoResolver, ips []string) ([]Location, error) {
	results := make([]Location, len(ips))
	errs := make([]error, len(ips))
	wg := &sync.WaitGroup{}

	for i := range ips {
		wg.Add(1)

		req := &resolveTaskRequest{
			ctx:      ctx,
			resolver: resolver,
			ip:       ips[i],
			result:   &results[i],
			err:      &errs[i],
			wg:       wg,
		}

		if err := h.workerPool.Invoke(req); err != nil {
			wg.Done()
			wg.Wait()

			return nil, fmt.Errorf("cannot schedule a task: %w", err)
		}
	}

	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("cannot resolve %s: %w", ips[i], err)
		}
	}

	return results, nil
}

func (h *HTTPHandler) handlePost(w http.ResponseWriter, req *http.Request) {
	if !strings.Contains(req.Header.Get("Content-Type"), "application/json") {
		h.sendError(w, nil, "Incorrect content type", http.StatusUnsupportedMediaType)

		return
	}

	bodyBytes, err := io.ReadAll(req.Body)

	req.Body.Close()

	if err != nil {
		h.sendError(w, err, "Cannot read request body", http.StatusBadRequest)

		return
	}

	errs, err := handlePostRequestJSONSchema.ValidateBytes(req.Context(), bodyBytes)
	if err != nil {
		h.sendError(w, err, "Cannot validate body", http.StatusBadRequest)

		return
	}

	if len(errs) > 0 {
		h.sendError(w, errs[0], "Invalid request body", http.StatusBadRequest)

		return
	}

	parsedRequest := &handlePostRequest{}
	if err := json.Unmarshal(bodyBytes, parsedRequest); err != nil {
		h.sendError(w, err, "Cannot parse request JSON", http.StatusBadRequest)

		return
	}

	resolver, err := h.newResolver(req)
	if err != nil {
		h.sendError(w, err, "Cannot initialize resolver", 0)

		return
	}

	resolved, err := h.resolveAll(req.Context(), resolver, parsedRequest.IPs)
	if err != nil {
		h.sendResolveError(w, "", err)

		return
	}

	h.encodeJSON(w, handlePostResponse{Results: resolved})
}
