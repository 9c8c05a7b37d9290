package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"parkeaya-panel/internal/auth"
	"parkeaya-panel/internal/entities"
	apperrors "parkeaya-panel/internal/errors"
	"parkeaya-panel/internal/remote"
	"parkeaya-panel/internal/service"
)

const maxImageBytes = 10 << 20

// OwnerParkingHandler exposes CRUD over the owner's parking lots.
type OwnerParkingHandler struct {
	Service *service.ParkingService
}

func NewOwnerParkingHandler(svc *service.ParkingService) *OwnerParkingHandler {
	return &OwnerParkingHandler{Service: svc}
}

func (h *OwnerParkingHandler) ListParkings(w http.ResponseWriter, r *http.Request) {
	list, err := h.Service.ListOwnerParkings(r.Context(), auth.TokenFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *OwnerParkingHandler) GetParking(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetParking(r.Context(), auth.TokenFromContext(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *OwnerParkingHandler) CreateParking(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Service.CreateParking(r.Context(), auth.TokenFromContext(r.Context()), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *OwnerParkingHandler) UpdateParking(w http.ResponseWriter, r *http.Request) {
	payload, err := decodePayload(w, r)
	if err != nil {
		writeError(w, err)
		return
	}
	p, err := h.Service.UpdateParking(r.Context(), auth.TokenFromContext(r.Context()), mux.Vars(r)["id"], payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *OwnerParkingHandler) DeleteParking(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.Service.DeleteParking(r.Context(), auth.TokenFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Parking deleted"})
}

func (h *OwnerParkingHandler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	var req entities.AvailabilityUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.AvailableSpaces == nil {
		writeError(w, apperrors.Validation("availableSpaces is required"))
		return
	}
	p, err := h.Service.UpdateAvailability(r.Context(), auth.TokenFromContext(r.Context()), mux.Vars(r)["id"], *req.AvailableSpaces)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// UploadImage accepts a multipart form with the file in "image" and an
// optional "principal" flag.
func (h *OwnerParkingHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+1<<20)
	if err := r.ParseMultipartForm(maxImageBytes); err != nil {
		writeError(w, apperrors.Validation("invalid multipart form"))
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, apperrors.Validation("image is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, apperrors.Validation("could not read image"))
		return
	}
	img := remote.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	if img.ContentType == "" || img.ContentType == "application/octet-stream" {
		img.ContentType = http.DetectContentType(data)
	}
	if v := r.FormValue("principal"); v != "" {
		principal, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, apperrors.Validation("principal must be true or false"))
			return
		}
		img.Principal = &principal
	}

	if err := h.Service.UploadImage(r.Context(), auth.TokenFromContext(r.Context()), mux.Vars(r)["id"], img); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Image uploaded"})
}
