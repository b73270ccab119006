package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
)

type SchemaController struct{}

func NewSchemaController() *SchemaController {
	return &SchemaController{}
}

// Analyze godoc
// @Summary  헤더 목록이 표준 컬럼으로 어떻게 해석되는지 확인
// @Tags     schema
// @Accept   json
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /api/schema/analyze [post]
func (c *SchemaController) Analyze(ctx echo.Context) error {
	var req struct {
		Columns []string `json:"columns"`
	}
	if err := ctx.Bind(&req); err != nil || len(req.Columns) == 0 {
		return ctx.JSON(400, map[string]string{"error": "columns 필요"})
	}

	resolutions := services.ResolveColumns(req.Columns)
	defaulted := []string{}
	for _, r := range resolutions {
		if !r.Resolved() && r.Default != "" {
			defaulted = append(defaulted, r.Canonical)
		}
	}
	return ctx.JSON(200, map[string]interface{}{
		"valid":     resolutions[0].Resolved(),
		"columns":   resolutions,
		"defaulted": defaulted,
		"aliases":   services.ColumnAliases,
	})
}
