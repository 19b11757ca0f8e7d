package controllers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/services"
	"github.com/photocard-archive/api-go/utils"
)

var (
	errInvalidBody = utils.Validation("Invalid request body.")
	errInvalidID   = utils.Validation("Invalid ID format.")
)

type PaginationMeta struct {
	CurrentPage int   `json:"currentPage"`
	PageSize    int   `json:"pageSize"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func newPaginationMeta(page services.Page, total int64) *PaginationMeta {
	return &PaginationMeta{
		CurrentPage: page.Page,
		PageSize:    page.Limit,
		TotalItems:  total,
		TotalPages:  int(math.Ceil(float64(total) / float64(page.Limit))),
	}
}

// sendJSON writes the success envelope: success, message and the payload
// keys at the top level.
func sendJSON(c *gin.Context, status int, message string, payload gin.H) {
	body := gin.H{"success": status >= http.StatusOK && status < http.StatusMultipleChoices, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

func paramID(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// queryInt reads an optional integer query parameter.
func queryInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, utils.Validation("Invalid " + name + " parameter.")
	}
	return &v, nil
}

func pageQuery(c *gin.Context) services.Page {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return services.Page{Page: page, Limit: limit}
}

// currentUser returns the caller set by the auth middleware.
func currentUser(c *gin.Context) (*utils.UserClaims, error) {
	user := utils.GetUser(c)
	if user == nil {
		return nil, utils.Unauthorized("User not authenticated.")
	}
	return user, nil
}
