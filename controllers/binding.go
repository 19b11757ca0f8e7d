package controllers

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/photocard-archive/api-go/utils"
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// bindJSON decodes the body into dst and runs its binding rules. Rule
// failures list the offending fields under details.fields.
func bindJSON(c *gin.Context, dst any) error {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return errInvalidBody
	}
	fields := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		fields = append(fields, fe.Field())
	}
	return utils.Validation("Invalid or missing fields.").WithDetails(map[string]any{"fields": fields})
}
