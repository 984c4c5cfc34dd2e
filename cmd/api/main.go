package main

import (
	"os"

	"telefonia/cmd/internal/domain/sqlite"
	"telefonia/cmd/internal/domain/sqlite/repository"
	cognitoclient "telefonia/cmd/internal/integration/aws/cognito"
	authmw "telefonia/cmd/internal/middleware"
	"telefonia/cmd/internal/routes"
	"telefonia/cmd/internal/service"
	"telefonia/cmd/internal/token"
	"telefonia/cmd/internal/utils/validators"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	validate := validator.New()
	registerValidators(validate)

	err := godotenv.Load()
	if err != nil {
		log.Fatal("failed to load .env file", err)
	}

	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		log.Fatal("SECRET_KEY must be set")
	}

	// Init SQLite
	db, err := sqlite.Init()
	if err != nil {
		log.Fatal("failed to initialize database", err)
	}

	// Cognito client
	cogClient, err := cognitoclient.InitCognitoClient()
	if err != nil {
		log.Fatal("failed to initialize cognito client", err)
	}

	codec := token.NewCodec(secret)

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	settingRepo := repository.NewSettingRepository(db)

	// Getting services
	userService := service.NewUserService(userRepo, validate, cogClient, codec)
	apptService := service.NewAppointmentService(apptRepo, userRepo, settingRepo, validate)

	// Getting routes
	userRoutes := routes.NewUserDefault(userService)
	apptRoutes := routes.NewAppointmentDefault(apptService)

	e := echo.New()
	e.Use(middleware.CORS())

	requireUser := authmw.RequireUser(codec)
	requireAdmin := authmw.RequireAdmin(codec)

	// Appointments
	e.POST("/appointments", apptRoutes.CreateAppointment, requireUser)
	e.GET("/appointments", apptRoutes.GetAppointments, requireUser)
	e.GET("/appointments/:id", apptRoutes.GetAppointment, requireAdmin)
	e.PUT("/appointments/:id", apptRoutes.UpdateAppointment, requireUser)
	e.DELETE("/appointments/:id", apptRoutes.DisableAppointment, requireUser)

	// Users
	e.POST("/users", userRoutes.CreateUser)
	e.POST("/users/login", userRoutes.CreateLogin)
	e.POST("/users/verify", userRoutes.VerifySignup)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	err = e.Start(":" + port)
	if err != nil {
		e.Logger.Fatal(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("hasupper", validators.HasUpper)
	_ = validate.RegisterValidation("haslower", validators.HasLower)
	_ = validate.RegisterValidation("hasdigit", validators.HasDigit)
	_ = validate.RegisterValidation("hasspecial", validators.HasSpecial)
	_ = validate.RegisterValidation("nospaces", validators.NoWhiteSpaces)
	_ = validate.RegisterValidation("iso8601", validators.IsIso8601)
	_ = validate.RegisterValidation("humanname", validators.HumanName)
	_ = validate.RegisterValidation("phonenumber", validators.PhoneNumber)
}
