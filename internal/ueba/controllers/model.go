package controllers

import (
	"github.com/labstack/echo/v4"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
)

type ModelController struct {
	Service *services.Service
}

func NewModelController(svc *services.Service) *ModelController {
	return &ModelController{Service: svc}
}

// Train godoc
// @Summary  설정된 학습 데이터로 재학습 후 번들 교체
// @Tags     model
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /api/train [post]
func (c *ModelController) Train(ctx echo.Context) error {
	bundle, err := c.Service.Train(ctx.Request().Context())
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(200, map[string]interface{}{
		"status":        "ok",
		"id":            bundle.ID,
		"training_rows": bundle.TrainingRows,
		"features":      bundle.Encoder.Width(),
	})
}

// Features godoc
// @Summary  학습된 피처 컬럼과 인코딩 차원
// @Tags     model
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /api/model/features [get]
func (c *ModelController) Features(ctx echo.Context) error {
	bundle, err := c.Service.Store().Current()
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(200, map[string]interface{}{
		"feature_columns": bundle.FeatureColumns,
		"encoded":         bundle.Encoder.FeatureNames(),
		"vocabulary":      bundle.Encoder.Categorical,
	})
}
