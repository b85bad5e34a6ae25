package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/cmlabs-hris/attendance-engine-go/internal/config"
	appHTTP "github.com/cmlabs-hris/attendance-engine-go/internal/handler/http"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/cron"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/database"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/devicegw"
	"github.com/cmlabs-hris/attendance-engine-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/attendance-engine-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/attendance-engine-go/internal/service/attendance"
	"github.com/cmlabs-hris/attendance-engine-go/internal/service/devicesync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "attendance-engine"),
	)

	dsn := cfg.DatabaseURL()
	db, err := database.NewPostgreSQLDB(dsn)
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}

	punchRepo := postgresql.NewPunchEventRepository(db)
	dailyRepo := postgresql.NewDailyRecordRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	calendarProvider := postgresql.NewCalendarProvider(db)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	attendanceSvc := attendanceService.NewAttendanceService(
		punchRepo,
		dailyRepo,
		employeeRepo,
		calendarProvider,
		cfg.Workday,
		cfg.Query,
		logger,
	)

	gateway := devicegw.NewClient(cfg.Sync.GatewayURL, cfg.Sync.OrganizationID)
	syncService := devicesync.NewService(gateway, punchRepo, attendanceSvc, cfg.Sync.OrganizationID, logger)

	scheduler := cron.NewScheduler()
	syncService.RegisterJobs(scheduler, cfg.Sync.Interval)
	scheduler.Start()
	defer scheduler.Stop()

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc)
	syncHandler := appHTTP.NewSyncHandler(syncService)

	router := appHTTP.NewRouter(
		jwtService,
		attendanceHandler,
		syncHandler,
		cfg.App.Env,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	fmt.Printf("Server running at http://localhost%s\n", port)
	if err := http.ListenAndServe(port, router); err != nil {
		fmt.Println("Server error:", err)
	}
}
