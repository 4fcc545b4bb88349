package geolib

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type handleGetResponse struct {
	Result Location `json:"result"`
}

func (h *HTTPHandler) handleGetSelf(w http.ResponseWriter, req *http.Request) {
	resolver, err := h.newResolver(req)
	if err != nil {
		h.sendError(w, err, "Cannot initialize resolver", 0)

		return
	}

	resolved, err := resolver.Location(req.Context())
	if err != nil {
		h.sendResolveError(w, resolver.ClientIP(), err)

		return
	}

	h.encodeJSON(w, handleGetResponse{Result: resolved})
}

func (h *HTTPHandler) handleGetIP(w http.ResponseWriter, req *http.Request) {
	ip := chi.URLParam(req, "ip")

	resolver, err := h.newResolver(req)
	if err != nil {
		h.sendError(w, err, "Cannot initialize resolver", 0)

		return
	}

	resolved, err := resolver.LocationOf(req.Context(), ip)
	if err != nil {
		h.sendResolveError(w, ip, err)

		return
	}

	h.encodeJSON(w, handleGetResponse{Result: resolved})
}

func (h *HTTPHandler) handleGetStats(w http.ResponseWriter, req *http.Request) {
	response := struct {
		Results []*UsageStats `json:"results"`
	}{
		Results: h.stats,
	}

	h.encodeJSON(w, response)
}
