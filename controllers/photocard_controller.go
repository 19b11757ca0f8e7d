package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/services"
	"github.com/photocard-archive/api-go/storage"
	"gorm.io/gorm"
)

// PhotocardController serves the public catalogue and owner actions.
type PhotocardController struct {
	DB     *gorm.DB
	Images storage.ImageStore
}

func NewPhotocardController(db *gorm.DB, images storage.ImageStore) *PhotocardController {
	return &PhotocardController{DB: db, Images: images}
}

type photocardRequest struct {
	Name                 string  `json:"name"`
	Age                  *int    `json:"age" binding:"omitempty,min=0"`
	Months               *int    `json:"months" binding:"omitempty,min=0,max=11"`
	Condition            *string `json:"condition" binding:"omitempty,oneof=injured missing deceased"`
	Biography            string  `json:"biography"`
	Image                *string `json:"image"`
	IsUnidentified       bool    `json:"isUnidentified"`
	IsConfirmedDuplicate *bool   `json:"isConfirmedDuplicate"`
	DuplicateOf          *uint   `json:"duplicateOf"`
}

func (r *photocardRequest) input() services.PhotocardInput {
	return services.PhotocardInput{
		Name:                 r.Name,
		Age:                  r.Age,
		Months:               r.Months,
		Condition:            r.Condition,
		Biography:            r.Biography,
		Image:                r.Image,
		IsUnidentified:       r.IsUnidentified,
		IsConfirmedDuplicate: r.IsConfirmedDuplicate,
		DuplicateOfID:        r.DuplicateOf,
	}
}

func bindPhotocard(c *gin.Context) (services.PhotocardInput, bool) {
	var req photocardRequest
	if err := bindJSON(c, &req); err != nil {
		_ = c.Error(err)
		return services.PhotocardInput{}, false
	}
	return req.input(), true
}

func (pc *PhotocardController) GetPhotocards(c *gin.Context) {
	excludeUnidentified, _ := strconv.ParseBool(c.Query("excludeUnidentified"))
	list, err := services.ListPublicPhotocards(c.Request.Context(), pc.DB, services.ListOptions{
		Page:                pageQuery(c),
		ExcludeUnidentified: excludeUnidentified,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	sendJSON(c, http.StatusOK, "Photocards fetched successfully.", gin.H{
		"photocards": list.Photocards,
		"counts":     list.Counts,
		"pagination": newPaginationMeta(list.Page, list.Total),
	})
}

func (pc *PhotocardController) GetPhotocard(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	photocard, err := services.GetPublicPhotocard(c.Request.Context(), pc.DB, id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard fetched successfully.", gin.H{"photocard": photocard})
}

func (pc *PhotocardController) SearchPhotocards(c *gin.Context) {
	photocards, err := services.SearchPhotocards(c.Request.Context(), pc.DB, c.Query("query"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Search results fetched successfully.", gin.H{"photocards": photocards})
}

func duplicateQuery(c *gin.Context) (services.DuplicateQuery, error) {
	q := services.DuplicateQuery{Name: c.Query("name")}
	var err error
	if q.Age, err = queryInt(c, "age"); err != nil {
		return q, err
	}
	if q.Months, err = queryInt(c, "months"); err != nil {
		return q, err
	}
	return q, nil
}

// CheckName is the pre-submission duplicate check.
func (pc *PhotocardController) CheckName(c *gin.Context) {
	q, err := duplicateQuery(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	existing, err := services.FindDuplicateCandidates(c.Request.Context(), pc.DB, q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Existing photocards checked successfully.", gin.H{"existingPhotocards": existing})
}

// GetPotentialDuplicates lists records a reporter may name as the original.
func (pc *PhotocardController) GetPotentialDuplicates(c *gin.Context) {
	q, err := duplicateQuery(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if raw := c.Query("currentPhotocardId"); raw != "" {
		current, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			_ = c.Error(errInvalidID)
			return
		}
		exclude := uint(current)
		q.ExcludeID = &exclude
	}

	photocards, err := services.FindReportableDuplicates(c.Request.Context(), pc.DB, q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Potential duplicates fetched successfully.", gin.H{"photocards": photocards})
}

func (pc *PhotocardController) CreatePhotocard(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	in, ok := bindPhotocard(c)
	if !ok {
		return
	}

	photocard, err := services.CreatePhotocard(c.Request.Context(), pc.DB, pc.Images, user.UserID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusCreated, "Photocard created successfully.", gin.H{"photocard": photocard})
}

func (pc *PhotocardController) GetUserPhotocards(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	photocards, err := services.ListUserPhotocards(c.Request.Context(), pc.DB, user.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "User photocards fetched successfully.", gin.H{"photocards": photocards})
}

func (pc *PhotocardController) UpdatePhotocard(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	in, ok := bindPhotocard(c)
	if !ok {
		return
	}

	photocard, err := services.UpdatePhotocard(c.Request.Context(), pc.DB, pc.Images, id, user.UserID, in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	sendJSON(c, http.StatusOK, "Photocard updated successfully.", gin.H{"photocard": photocard})
}

// DeletePhotocard soft-deletes on behalf of the owner. Admins reach the
// same transition through the admin route.
func (pc *PhotocardController) DeletePhotocard(c *gin.Context) {
	user, err := currentUser(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	id, err := paramID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	actor := services.Actor{UserID: user.UserID, IsAdmin: user.IsAdmin()}
	if err := services.SoftDeletePhotocard(c.Request.Context(), pc.DB, pc.Images, id, actor); err != nil {
		_ = c.Error(err)
		return
	}

	message := "Photocard marked as deleted successfully."
	if actor.IsAdmin {
		message = "Photocard marked as deleted by admin and reports resolved."
	}
	sendJSON(c, http.StatusOK, message, nil)
}
