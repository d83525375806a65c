package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Lusimba/kichaka/internal/services"
	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/gin-gonic/gin"
)

// WorkforceHandler holds the workforce service.
type WorkforceHandler struct {
	workforceService services.WorkforceService
}

// NewWorkforceHandler creates a new WorkforceHandler.
func NewWorkforceHandler(ws services.WorkforceService) *WorkforceHandler {
	return &WorkforceHandler{workforceService: ws}
}

func parseIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid ID format.", err.Error()))
		return 0, false
	}
	return id, true
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	return page, pageSize
}

func listResponse(c *gin.Context, data interface{}, total, page, pageSize int) {
	c.JSON(http.StatusOK, gin.H{
		"data":      data,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// CreateArtist handles the creation of a new artist.
func (h *WorkforceHandler) CreateArtist(c *gin.Context) {
	var req services.CreateArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	artist, err := h.workforceService.CreateArtist(req)
	if err != nil {
		utils.LogError(err, "CreateArtist: Error from workforceService.CreateArtist")
		if errors.Is(err, services.ErrSpecializationNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Specialization does not exist.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create artist.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, artist)
}

// GetArtists handles listing artists with search and pagination.
func (h *WorkforceHandler) GetArtists(c *gin.Context) {
	page, pageSize := parsePagination(c)
	search := c.Query("search")
	activeOnly := c.DefaultQuery("active_only", "false") == "true"

	artists, totalCount, err := h.workforceService.GetArtists(search, activeOnly, page, pageSize)
	if err != nil {
		utils.LogError(err, "GetArtists: Error from workforceService.GetArtists")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch artists.", "Internal error"))
		return
	}
	listResponse(c, artists, totalCount, page, pageSize)
}

// GetArtistByID handles fetching a single artist.
func (h *WorkforceHandler) GetArtistByID(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	artist, err := h.workforceService.GetArtistByID(id)
	if err != nil {
		if errors.Is(err, services.ErrArtistNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Artist not found.", ""))
		} else {
			utils.LogError(err, "GetArtistByID: Error from workforceService.GetArtistByID")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch artist.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, artist)
}

// UpdateArtist handles updating an artist.
func (h *WorkforceHandler) UpdateArtist(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.UpdateArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	artist, err := h.workforceService.UpdateArtist(id, req)
	if err != nil {
		utils.LogError(err, "UpdateArtist: Error from workforceService.UpdateArtist")
		if errors.Is(err, services.ErrArtistNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Artist not found.", ""))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update artist.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, artist)
}

// DeactivateArtist handles soft-deleting an artist.
func (h *WorkforceHandler) DeactivateArtist(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.workforceService.DeactivateArtist(id); err != nil {
		if errors.Is(err, services.ErrArtistNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Artist not found.", ""))
		} else {
			utils.LogError(err, "DeactivateArtist: Error from workforceService.DeactivateArtist")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to deactivate artist.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Artist deactivated"})
}

// CreateSpecialization handles the creation of a specialization.
func (h *WorkforceHandler) CreateSpecialization(c *gin.Context) {
	var req services.CreateSpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	spec, err := h.workforceService.CreateSpecialization(req)
	if err != nil {
		utils.LogError(err, "CreateSpecialization: Error from workforceService.CreateSpecialization")
		if errors.Is(err, services.ErrSpecializationExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Specialization already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create specialization.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, spec)
}

// GetSpecializations handles listing specializations.
func (h *WorkforceHandler) GetSpecializations(c *gin.Context) {
	page, pageSize := parsePagination(c)
	specs, totalCount, err := h.workforceService.GetSpecializations(page, pageSize)
	if err != nil {
		utils.LogError(err, "GetSpecializations: Error from workforceService.GetSpecializations")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch specializations.", "Internal error"))
		return
	}
	listResponse(c, specs, totalCount, page, pageSize)
}

// UpdateSpecialization handles renaming a specialization.
func (h *WorkforceHandler) UpdateSpecialization(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req services.CreateSpecializationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	spec, err := h.workforceService.UpdateSpecialization(id, req)
	if err != nil {
		utils.LogError(err, "UpdateSpecialization: Error from workforceService.UpdateSpecialization")
		if errors.Is(err, services.ErrSpecializationNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Specialization not found.", ""))
		} else if errors.Is(err, services.ErrSpecializationExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Specialization already exists.", err.Error()))
		} else if errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update specialization.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, spec)
}

// DeleteSpecialization handles deleting a specialization.
func (h *WorkforceHandler) DeleteSpecialization(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.workforceService.DeleteSpecialization(id); err != nil {
		if errors.Is(err, services.ErrSpecializationNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Specialization not found.", ""))
		} else {
			utils.LogError(err, "DeleteSpecialization: Error from workforceService.DeleteSpecialization")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete specialization.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Specialization deleted successfully"})
}
