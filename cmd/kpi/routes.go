package main

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"shipment-kpi/http-server/admin/reset"
	generate_excel "shipment-kpi/http-server/generate-report/generate-excel"
	getkpi "shipment-kpi/http-server/kpi/get"
	getlayout "shipment-kpi/http-server/layout/get"
	getmissing "shipment-kpi/http-server/missing-data/get"
	getuploads "shipment-kpi/http-server/uploads/get"
	saveupload "shipment-kpi/http-server/uploads/save"
	"shipment-kpi/internal/config"
	"shipment-kpi/internal/middleware/auth"
	"shipment-kpi/internal/service/dashboard"
	generate_excel2 "shipment-kpi/internal/service/generate-excel"
)

func routes(cfg config.Config, log *slog.Logger, service *dashboard.Service, genService *generate_excel2.GenerateExcelService) *chi.Mux {
	router := chi.NewRouter()

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins, // Разрешаем запросы с фронтенда
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	router.Use(corsHandler.Handler)

	router.Use(middleware.RequestID)
	//ip пользователя
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// Загрузка выгрузок: primary / secondary
	router.Post("/api/uploads/{slot}", saveupload.SaveUpload(log, service, cfg.KPI.MaxUploadBytes()))
	router.Get("/api/uploads", getuploads.GetUploads(log, service))

	router.Get("/api/overview", getkpi.GetOverview(log, service))

	// Показатели
	router.Route("/api/kpi/{metric}", func(r chi.Router) {
		r.Get("/buckets", getkpi.GetBuckets(log, service))
		r.Get("/buckets/{bucket}", getkpi.GetBucketPage(log, service))
		r.Get("/average", getkpi.GetAverage(log, service))
		r.Get("/threshold", getkpi.GetThreshold(log, service))
	})

	router.Get("/api/missing-data", getmissing.GetMissingData(log, service))
	router.Get("/api/layout/{variant}", getlayout.GetLayout(log))

	// генерация excel
	router.Get("/api/report/missing-data/excel", generate_excel.GenerateMissingDataExcel(log, genService, service.DefaultState()))
	router.Get("/api/report/{metric}/excel", generate_excel.GenerateReportExcel(log, genService, service.DefaultState()))

	adminRouter := chi.NewRouter()
	adminRouter.Use(auth.BasicAuth(cfg.AdminLogin, cfg.AdminPass))

	adminRouter.Delete("/uploads", reset.DeleteUploads(log, service))

	router.Mount("/api/admin", adminRouter)

	return router
}
