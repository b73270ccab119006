package cmd

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/markany/safepc-anomaly/docs"
	"github.com/markany/safepc-anomaly/internal/ueba/controllers"
	"github.com/markany/safepc-anomaly/internal/ueba/services"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"
)

func newRouter(svc *services.Service, warnMB, critMB float64) *echo.Echo {
	statusCtrl := controllers.NewStatusController(svc, warnMB, critMB)
	modelCtrl := controllers.NewModelController(svc)
	scoreCtrl := controllers.NewScoreController(svc)
	schemaCtrl := controllers.NewSchemaController()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// 상태 API
	e.GET("/api/health", statusCtrl.Health)
	e.GET("/api/status", statusCtrl.Status)

	// 모델 API
	e.GET("/api/model/features", modelCtrl.Features)
	e.POST("/api/train", modelCtrl.Train)

	// 스코어링 API
	e.POST("/api/score", scoreCtrl.Score)
	e.POST("/api/schema/analyze", schemaCtrl.Analyze)

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	return e
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "스코어링 HTTP API 시작",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("serve", true)
		if err != nil {
			return err
		}
		defer a.Close()

		a.logger.Info("[SERVE] UEBA 이상 탐지 API 시작",
			zap.String("port", a.cfg.Server.Port),
			zap.String("model", a.cfg.Model.Path),
			zap.String("opensearch", a.cfg.OpenSearch.URL),
			zap.String("kafka", a.cfg.Kafka.Bootstrap),
		)
		if _, err := a.service.Store().Load(); err != nil {
			a.logger.Warn("[SERVE] 번들 없음, /api/train 호출 전까지 스코어링 불가", zap.Error(err))
		}

		e := newRouter(a.service, a.cfg.Server.MemWarnMB, a.cfg.Server.MemCritMB)
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			if err := e.Start(a.cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("[SERVE] 서버 오류", zap.Error(err))
				stop()
			}
		}()
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	},
}
