package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/SATYAJEET323/EduBot/internal/core"
)

// readImageUpload pulls the "image" part out of a multipart form, enforcing
// the size limit and sniffing the MIME type before anything touches storage.
func (h *APIHandler) readImageUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "invalid or oversized multipart upload")
		return nil, false
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondValidation(w, map[string]string{"image": "an image file is required"})
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read uploaded image")
		return nil, false
	}

	contentType := http.DetectContentType(data)
	if contentType != "image/jpeg" && contentType != "image/png" {
		respondValidation(w, map[string]string{"image": "only JPEG and PNG images are accepted"})
		return nil, false
	}
	return data, true
}

// DetectFaceHandler extracts a descriptor from the uploaded image without
// persisting anything.
func (h *APIHandler) DetectFaceHandler(w http.ResponseWriter, r *http.Request) {
	image, ok := h.readImageUpload(w, r)
	if !ok {
		return
	}

	descriptor, err := h.faceService.DetectDescriptor(image)
	if err != nil {
		h.logger.Error().Err(err).Msg("descriptor extraction failed")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", map[string]any{"descriptor": descriptor})
}

type CompareFacesRequest struct {
	DescriptorA []float32 `json:"descriptor_a"`
	DescriptorB []float32 `json:"descriptor_b"`
}

func (h *APIHandler) CompareFacesHandler(w http.ResponseWriter, r *http.Request) {
	var req CompareFacesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	fieldErrors := map[string]string{}
	if len(req.DescriptorA) == 0 {
		fieldErrors["descriptor_a"] = "descriptor_a is required"
	}
	if len(req.DescriptorB) == 0 {
		fieldErrors["descriptor_b"] = "descriptor_b is required"
	}
	if len(fieldErrors) > 0 {
		respondValidation(w, fieldErrors)
		return
	}

	respondSuccess(w, http.StatusOK, "", h.faceService.Compare(req.DescriptorA, req.DescriptorB))
}

// RegisterFaceHandler extracts a descriptor from the uploaded image and
// stores it on the authenticated account.
func (h *APIHandler) RegisterFaceHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	image, ok := h.readImageUpload(w, r)
	if !ok {
		return
	}

	descriptor, err := h.faceService.RegisterFromImage(user.ID, image)
	if err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("face registration failed")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "face registered", map[string]any{"descriptor": descriptor})
}

func (h *APIHandler) UnregisterFaceHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	if err := h.faceService.Remove(user.ID); err != nil {
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("face unregistration failed")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "face registration removed", nil)
}

func (h *APIHandler) FaceStatusHandler(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)

	registered, err := h.faceService.Status(user.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		h.logger.Error().Err(err).Int64("user_id", user.ID).Msg("face status failed")
		respondUpstreamError(w, err)
		return
	}
	respondSuccess(w, http.StatusOK, "", map[string]any{"registered": registered})
}
