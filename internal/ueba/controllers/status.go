package controllers

import (
	"math"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
)

type StatusController struct {
	Service   *services.Service
	StartTime time.Time
	WarnMB    float64
	CritMB    float64
}

func NewStatusController(svc *services.Service, warnMB, critMB float64) *StatusController {
	return &StatusController{Service: svc, StartTime: time.Now(), WarnMB: warnMB, CritMB: critMB}
}

// Health godoc
// @Summary  프로세스 메모리와 번들 로드 상태
// @Tags     status
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /api/health [get]
func (c *StatusController) Health(ctx echo.Context) error {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	allocMB := float64(m.Alloc) / 1024 / 1024
	sysMB := float64(m.Sys) / 1024 / 1024

	level := "healthy"
	warnings := []string{}
	if allocMB > c.CritMB {
		level = "critical"
		warnings = append(warnings, "메모리 임계")
	} else if allocMB > c.WarnMB {
		level = "warning"
		warnings = append(warnings, "메모리 경고")
	}
	bundle, err := c.Service.Store().Current()
	if err != nil {
		level = "warning"
		warnings = append(warnings, "학습된 모델 없음")
	}

	model := map[string]interface{}{"loaded": bundle != nil}
	if bundle != nil {
		model["id"] = bundle.ID
	}
	return ctx.JSON(200, map[string]interface{}{
		"status":   level,
		"warnings": warnings,
		"uptime":   time.Since(c.StartTime).String(),
		"memory": map[string]interface{}{
			"alloc_mb":   math.Round(allocMB*100) / 100,
			"sys_mb":     math.Round(sysMB*100) / 100,
			"gc_count":   m.NumGC,
			"goroutines": runtime.NumGoroutine(),
		},
		"model": model,
	})
}

// Status godoc
// @Summary  현재 번들 메타데이터와 오늘 저장된 이벤트 수
// @Tags     status
// @Produce  json
// @Success  200  {object}  map[string]interface{}
// @Router   /api/status [get]
func (c *StatusController) Status(ctx echo.Context) error {
	out := map[string]interface{}{
		"service": "ueba-anomaly",
		"bundle":  nil,
	}
	if bundle, err := c.Service.Store().Current(); err == nil {
		out["bundle"] = map[string]interface{}{
			"id":              bundle.ID,
			"created_at":      bundle.CreatedAt,
			"training_source": bundle.TrainingSource,
			"training_rows":   bundle.TrainingRows,
			"trees":           len(bundle.Model.Trees),
			"offset":          bundle.Model.Offset,
		}
	} else {
		out["error"] = err.Error()
	}
	if x := c.Service.Indexer(); x != nil {
		if n, err := x.CountToday(ctx.Request().Context()); err == nil {
			out["today_events"] = n
		}
	}
	return ctx.JSON(200, out)
}
