package handlers

import (
	"net/http"

	"portfolio-backend/internal/motion"
)

type MotionHandler struct {
	cfg motion.Config
}

func NewMotionHandler(cfg motion.Config) *MotionHandler {
	return &MotionHandler{cfg: cfg}
}

// Config serves the animation parameters read by the front-end script.
func (h *MotionHandler) Config(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	writeJSON(w, http.StatusOK, h.cfg)
}
