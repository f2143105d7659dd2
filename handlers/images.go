package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/ghpolls/chart"
	"github.com/danielhkuo/ghpolls/middleware"
	"github.com/danielhkuo/ghpolls/models"
)

// ImageMaxAge is how long clients may reuse a chart image.
const ImageMaxAge = time.Second

type ImageHandler struct {
	images *chart.Service
}

func NewImageHandler(images *chart.Service) *ImageHandler {
	return &ImageHandler{images: images}
}

// PollImage handles GET /polls/{id}.png
//
// The body is always a PNG, even when the chart can't be drawn; the
// status tells 200 (chart), 202 (try again shortly) and 500 apart.
func (h *ImageHandler) PollImage(w http.ResponseWriter, r *http.Request) {
	refresh := r.URL.Query().Get("refresh") == "true"

	img, err := h.images.PollImage(r.Context(), pollID(r), refresh)
	if errors.Is(err, models.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
		return
	}

	header := w.Header()
	header.Set("Access-Control-Allow-Origin", "*")
	header.Del("Access-Control-Allow-Credentials")
	header.Set("Content-Type", "image/png")
	header.Set("Content-Length", strconv.Itoa(len(img.PNG)))
	header.Set("Cache-Control", "no-cache, no-store, max-age="+strconv.Itoa(int(ImageMaxAge.Seconds())))
	header.Set("Expires", time.Now().Add(ImageMaxAge).UTC().Format(http.TimeFormat))

	w.WriteHeader(img.Status)
	if _, err := w.Write(img.PNG); err != nil {
		zap.L().Debug("failed to write poll image", zap.Error(err))
	}
}
