package controllers

import (
	"io"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
)

const defaultTopEvents = 100

type ScoreController struct {
	Service *services.Service
}

func NewScoreController(svc *services.Service) *ScoreController {
	return &ScoreController{Service: svc}
}

// Score godoc
// @Summary      CSV 로그 배치 스코어링
// @Description  multipart "file" 또는 text/csv 본문. 이벤트는 anomaly_score 내림차순 상위 top개만 반환
// @Tags         score
// @Accept       mpfd,plain
// @Produce      json
// @Param        top   query  int  false  "반환할 이벤트 수 (0 = 전체)"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/score [post]
func (c *ScoreController) Score(ctx echo.Context) error {
	top := defaultTopEvents
	if v := ctx.QueryParam("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			top = n
		}
	}

	name := "upload"
	var body io.Reader = ctx.Request().Body
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return ctx.JSON(400, map[string]string{"error": err.Error()})
		}
		defer f.Close()
		name, body = fh.Filename, f
	}

	res, err := c.Service.ScoreReader(ctx.Request().Context(), name, body)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(200, map[string]interface{}{
		"summary": res.Summary,
		"events":  services.TopEvents(res.Events, top),
		"users":   res.Users,
	})
}
